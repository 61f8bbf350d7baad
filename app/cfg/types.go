package cfg

import "time"

type Cfg struct {
	// Commerce backend
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	CategoriesPath string
	PerPage        int

	// Storage
	CatalogFile string
	DBPath      string
	RedisAddr   string

	// Retrieval policy
	StaleTime       time.Duration
	FetchRetry      int
	FetchTimeout    time.Duration
	RefreshInterval time.Duration
	WorkerCount     int

	// Application configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
