// Package tavily is a client for the Tavily map, extract and crawl endpoints.
package tavily
