package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/schemas"
)

const (
	DefaultLedgerEndpoint = "wss://s.altnet.rippletest.net:51233"
	DefaultExplorerBase   = "https://testnet.xrpl.org/transactions/"
	DefaultCountriesURL   = "https://d2ad6b4ur7yvpq.cloudfront.net/naturalearth-3.3.0/ne_110m_admin_0_countries.geojson"
	DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"
	DefaultIPFSGateway    = "https://gateway.pinata.cloud/ipfs/"
	DefaultListen         = ":8000"

	EnvPinataJWT  = "TRANSPARENCE_PINATA_JWT"
	EnvWalletSeed = "TRANSPARENCE_WALLET_SEED"
)

type Config struct {
	Server Server `yaml:"server"`
	Ledger Ledger `yaml:"ledger"`
	IPFS   IPFS   `yaml:"ipfs"`
	Geo    Geo    `yaml:"geo"`
	Wallet Wallet `yaml:"wallet"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	DBDriver      string `yaml:"dbDriver"` // postgres, sqlite
	PostgresDsn   string `yaml:"postgresDsn"`
	SqlitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Ledger struct {
	Network        string `yaml:"network"`
	Endpoint       string `yaml:"endpoint"`
	JournalAddress string `yaml:"journalAddress"`
	ExplorerBase   string `yaml:"explorerBase"`
	MaxPages       int    `yaml:"maxPages"`
	CacheSeconds   int32  `yaml:"cacheSeconds"`
}

type IPFS struct {
	PinataEndpoint string `yaml:"pinataEndpoint"`
	PinataJWT      string `yaml:"pinataJWT"`
	GatewayBase    string `yaml:"gatewayBase"`
}

type Geo struct {
	CountriesURL string `yaml:"countriesURL"`
}

type Wallet struct {
	Account string `yaml:"account"`
	Seed    string `yaml:"seed"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.ApplyDefaults()
	config.ApplyEnv()

	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.DBDriver == "" {
		c.Server.DBDriver = "postgres"
	}
	if c.Ledger.Network == "" {
		c.Ledger.Network = "testnet"
	}
	if c.Ledger.Endpoint == "" {
		c.Ledger.Endpoint = DefaultLedgerEndpoint
	}
	if c.Ledger.ExplorerBase == "" {
		c.Ledger.ExplorerBase = DefaultExplorerBase
	}
	if c.Ledger.MaxPages <= 0 {
		c.Ledger.MaxPages = 5
	}
	if c.Ledger.CacheSeconds <= 0 {
		c.Ledger.CacheSeconds = 30
	}
	if c.IPFS.PinataEndpoint == "" {
		c.IPFS.PinataEndpoint = DefaultPinataEndpoint
	}
	if c.IPFS.GatewayBase == "" {
		c.IPFS.GatewayBase = DefaultIPFSGateway
	}
	if c.Geo.CountriesURL == "" {
		c.Geo.CountriesURL = DefaultCountriesURL
	}
}

// ApplyEnv overrides secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvPinataJWT); v != "" {
		c.IPFS.PinataJWT = v
	}
	if v := os.Getenv(EnvWalletSeed); v != "" {
		c.Wallet.Seed = v
	}
}

func (c Config) Info() domain.Info {
	return domain.Info{
		Network:        c.Ledger.Network,
		JournalAddress: c.Ledger.JournalAddress,
		ExplorerBase:   c.Ledger.ExplorerBase,
		MemoType:       schemas.MemoTypeV1,
		GatewayBase:    c.IPFS.GatewayBase,
	}
}
