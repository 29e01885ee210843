package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		GeneralParams: GeneralParams{
			Env:       "dev",
			SecretKey: "super-secret",
		},
		HttpServerParams: HttpServerParams{
			Address: "localhost",
			Port:    "8080",
		},
		MainDBParams: MainDBParams{
			Username: "studyhall",
			Password: "studyhall",
			Name:     "studyhall",
			Port:     5432,
			Host:     "localhost",
			Timeout:  5,
		},
		S3Params: S3Params{
			Endpoint:        "localhost:9000",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio123",
			BucketName:      "studyhall-files",
		},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateDBPortRange(t *testing.T) {
	// Any real port works, not just the postgres default.
	c := validConfig()
	c.MainDBParams.Port = 6543
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() with port 6543 error = %v", err)
	}

	for _, port := range []int{0, -1, 70000} {
		c := validConfig()
		c.MainDBParams.Port = port
		err := c.Validate()
		if err == nil {
			t.Fatalf("Validate() accepted port %d", port)
		}
		if !strings.Contains(err.Error(), "port") {
			t.Errorf("port %d error = %q, want it to mention the port", port, err)
		}
	}
}

func TestValidateRejectsUnknownEnv(t *testing.T) {
	c := validConfig()
	c.GeneralParams.Env = "staging"
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted unknown env")
	}
}

func TestValidateRequiresSecretKey(t *testing.T) {
	c := validConfig()
	c.GeneralParams.SecretKey = ""
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() accepted empty secret_key")
	}
}
