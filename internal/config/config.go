package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database  `envPrefix:"DB_"`
	Supabase    Supabase  `envPrefix:"SUPABASE_"`
	Payment     Payment   `envPrefix:"PAYMENT_"`
	Redis       Redis     `envPrefix:"REDIS_"`
	Telemetry   Telemetry `envPrefix:"TELEMETRY_"`
	Kafka       Kafka     `envPrefix:"KAFKA_"`
	RateLimit   RateLimit `envPrefix:"RATE_LIMIT_"`
	Renewal     Renewal   `envPrefix:"RENEWAL_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host         string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	BodyLimit    string        `env:"HTTP_BODY_LIMIT" envDefault:"256K"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL             string        `env:"URL" envDefault:"storefront.db"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Supabase struct {
	URL       string `env:"URL"`
	AnonKey   string `env:"ANON_KEY"`
	JWTSecret string `env:"JWT_SECRET"`
}

type Payment struct {
	Provider string `env:"PROVIDER" envDefault:"razorpay"` // razorpay, payu, cashfree, upi, braintree

	Razorpay  Razorpay  `envPrefix:"RAZORPAY_"`
	PayU      PayU      `envPrefix:"PAYU_"`
	Cashfree  Cashfree  `envPrefix:"CASHFREE_"`
	UPI       UPI       `envPrefix:"UPI_"`
	Braintree Braintree `envPrefix:"BRAINTREE_"`
}

type Razorpay struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.razorpay.com"`
	KeyID      string `env:"KEY_ID"`
	KeySecret  string `env:"KEY_SECRET"`
}

type PayU struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://test.payu.in/_payment"`
	MerchantKey string `env:"MERCHANT_KEY"`
	Salt        string `env:"SALT"`
	SuccessURL  string `env:"SUCCESS_URL"`
	FailureURL  string `env:"FAILURE_URL"`
}

type Cashfree struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://sandbox.cashfree.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	APIVersion   string `env:"API_VERSION" envDefault:"2023-08-01"`
	ReturnURL    string `env:"RETURN_URL"`
}

type UPI struct {
	VPA       string `env:"VPA"`
	PayeeName string `env:"PAYEE_NAME"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	KeyTTL   time.Duration `env:"KEY_TTL" envDefault:"72h"`
}

type Telemetry struct {
	LogEvents bool `env:"LOG_EVENTS" envDefault:"false"`
	Metrics   bool `env:"METRICS" envDefault:"false"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"storefront.events"`
}

type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

type Renewal struct {
	Enabled bool          `env:"ENABLED" envDefault:"false"`
	Cron    string        `env:"CRON" envDefault:"0 9 * * *"`
	Window  time.Duration `env:"WINDOW" envDefault:"168h"`
}
