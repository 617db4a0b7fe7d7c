package myrasecprovider

// Config is used to configure the creation of the MyraSecDNSProvider.
type Config struct {
	APIKey            string
	APISecret         string
	TTL               int
	DisableProtection bool
}

const defaultTTL = 300
