package common

const (
	CacheKeyPrefixNews = "news"

	HeaderRequestID = "X-Request-ID"

	DefaultUserAgent = "GoodNewsApp/1.0"
)
