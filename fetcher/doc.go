// Package fetcher provides the "fetch text from a location" primitive used by tplmgr.
// HTTPFetcher retrieves locations over HTTP (optionally relative to a base URL);
// FSFetcher reads them from an fs.FS such as embed.FS or os.DirFS.
package fetcher
