// Package direct implements webcrawl.Service by fetching pages over HTTP and
// converting them to markdown locally. It needs no API key and is meant for
// small sites or for running the pipeline without a hosted crawl service.
package direct
