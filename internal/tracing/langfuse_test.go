package tracing

import "testing"

func TestConfigFromEnv_DefaultHost(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk")
	t.Setenv("LANGFUSE_SECRET_KEY", "sk")

	cfg := ConfigFromEnv()
	if cfg.Host != defaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, defaultHost)
	}
	if !cfg.Enabled() {
		t.Error("Enabled() = false, want true")
	}
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"both keys", Config{PublicKey: "pk", SecretKey: "sk"}, true},
		{"missing secret", Config{PublicKey: "pk"}, false},
		{"missing public", Config{SecretKey: "sk"}, false},
		{"empty", Config{}, false},
	}
	for _, tc := range tests {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Errorf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	handler, flush, ok := Setup(Config{Host: "http://langfuse"})
	if ok {
		t.Fatal("Setup() ok = true without keys")
	}
	if handler != nil || flush != nil {
		t.Error("Setup() returned non-nil handler or flush when disabled")
	}
}

func TestInstall_DisabledFlushIsSafe(t *testing.T) {
	t.Parallel()

	flush, ok := Install(Config{})
	if ok {
		t.Fatal("Install() ok = true without keys")
	}
	flush()
}
