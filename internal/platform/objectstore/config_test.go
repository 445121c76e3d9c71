package objectstore

import "testing"

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.BucketServe == cfg.BucketPersist {
		t.Fatalf("serve and persist buckets must differ, both %q", cfg.BucketServe)
	}
}

func TestConfigValidateRejectsScheme(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	cfg.Endpoint = "http://localhost:9000"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() accepted endpoint with scheme")
	}
}
