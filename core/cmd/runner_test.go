package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/intakebot/core/config"
	coretelegram "github.com/m3rciful/intakebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	started, stopped, closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.stopped = true; return nil },
	}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	app := &fakeApp{}
	loggerClosed := false
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "INTAKEBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !app.started || !app.stopped || !app.closed || !loggerClosed {
		t.Fatalf("lifecycle = %+v, logger closed %v", app, loggerClosed)
	}
}

func TestRunFailures(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("missing LoadConfig must fail")
	}
	boom := errors.New("bad yaml")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "INTAKEBOT_TEST_CONFIG",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	err = Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "INTAKEBOT_TEST_CONFIG",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:         func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("nil core config must be rejected")
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("INTAKEBOT_TEST_PATH", "")
	if p, err := ConfigPath("INTAKEBOT_TEST_PATH", "config.yaml"); err != nil || p != "config.yaml" {
		t.Fatalf("default = %q, %v", p, err)
	}
	t.Setenv("INTAKEBOT_TEST_PATH", "/etc/intakebot.yaml")
	if p, _ := ConfigPath("INTAKEBOT_TEST_PATH", "config.yaml"); p != "/etc/intakebot.yaml" {
		t.Fatalf("env = %q", p)
	}
	t.Setenv("INTAKEBOT_TEST_PATH", "")
	if _, err := ConfigPath("INTAKEBOT_TEST_PATH", ""); err == nil {
		t.Fatal("missing path must fail")
	}
}
