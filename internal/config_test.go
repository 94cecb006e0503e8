package internal_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/user-management/internal"
)

func validConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			Port:              8000,
			AllowedOrigins:    "*",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Driver:       internal.DriverMySQL,
			Source:       "root:root@tcp(localhost:3306)/user_management?parseTime=true",
			MaxOpenConns: 30,
			MaxIdleConns: 10,
		},
		Security: internal.SecurityConfig{
			JWTSecret:           "0123456789abcdef0123456789abcdef",
			AccessTokenDuration: 24 * time.Hour,
			BCryptCost:          10,
			AdminRoles:          []string{"superadmin", "admin"},
		},
		Observability: internal.ObservabilityConfig{
			Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
			Logging: internal.LoggingConfig{Level: "info", Format: "json"},
		},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid values",
		func(mutate func(*internal.Config), message string) {
			cfg := validConfig()
			mutate(cfg)

			Expect(cfg.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("port", func(c *internal.Config) { c.Server.Port = 0 }, "invalid port"),
		Entry("read timeout", func(c *internal.Config) { c.Server.ReadTimeout = time.Second }, "read_timeout"),
		Entry("driver", func(c *internal.Config) { c.Database.Driver = "oracle" }, `unsupported driver "oracle"`),
		Entry("source", func(c *internal.Config) { c.Database.Source = "" }, "source is required"),
		Entry("idle pool", func(c *internal.Config) { c.Database.MaxIdleConns = 50 }, "max_idle_conns"),
		Entry("short secret", func(c *internal.Config) { c.Security.JWTSecret = "short" }, "at least 32 characters"),
		Entry("token duration", func(c *internal.Config) { c.Security.AccessTokenDuration = time.Second }, "access_token_duration"),
		Entry("bcrypt cost", func(c *internal.Config) { c.Security.BCryptCost = 40 }, "bcrypt_cost 40 out of range"),
		Entry("metrics path", func(c *internal.Config) { c.Observability.Metrics.Path = "metrics" }, "must start with /"),
		Entry("log level", func(c *internal.Config) { c.Observability.Logging.Level = "verbose" }, "unknown log level"),
	)

	It("reports every failing section", func() {
		cfg := validConfig()
		cfg.Server.Port = -1
		cfg.Security.JWTSecret = ""

		err := cfg.Validate()

		Expect(err).To(MatchError(ContainSubstring("server config")))
		Expect(err).To(MatchError(ContainSubstring("security config")))
	})

	Describe("LoadConfigFromEnv", func() {
		It("applies defaults and reads overrides", func() {
			GinkgoT().Setenv("DATABASE_URL", "file:test.db")
			GinkgoT().Setenv("DATABASE_DRIVER", "sqlite")
			GinkgoT().Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
			GinkgoT().Setenv("ADMIN_ROLES", "ops")

			cfg, err := internal.LoadConfigFromEnv(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Port).To(Equal(8000))
			Expect(cfg.Database.Driver).To(Equal(internal.DriverSQLite))
			Expect(cfg.Database.GetDSN()).To(Equal("file:test.db"))
			Expect(cfg.Security.AccessTokenDuration).To(Equal(24 * time.Hour))
			Expect(cfg.Security.AdminRoles).To(Equal([]string{"ops"}))
			Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
