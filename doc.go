// Package rootio reads CERN ROOT binary files: the file header, TKey
// records at given offsets, and the streamer-info catalog that describes
// every class shape the file's writer recorded.
//
// It does not implement ROOT's tree/branch columnar layout, histogram
// types, or write support. What it recovers for those objects is their
// raw key bytes and, where available, their streamer-info shape; turning
// that into typed trees or histograms is left to higher-level code.
package rootio
