// Package files retrieves the source resources of the dataset and handles
// the files the application writes.
//
// A Fetcher resolves a locator to bytes. Retriever fetches http(s) locators
// with a context-bound request and reads everything else from the data
// directory. MapFetcher serves resources from memory.
//
// Discovery lists local data files and Manager writes exports atomically.
package files
