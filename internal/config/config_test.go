package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, conf.HTTPAddr)
	assert.Equal(t, StoreMemory, conf.Store)
	assert.Equal(t, DefaultKafkaTopic, conf.KafkaTopic)
	assert.Empty(t, conf.Brokers())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("IOU_HTTP_ADDR", ":9090")
	t.Setenv("IOU_KAFKA_BROKERS", "k1:9092, k2:9092,")

	conf, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", conf.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, conf.Brokers())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("IOU_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("IOU_LOG_LEVEL") })

	conf, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, logrus.DebugLevel, conf.Logger().Level)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	conf := NewDefaultConfig()
	conf.Store = StorePostgres
	assert.Error(t, conf.Validate())

	conf.DatabaseURL = "postgres://localhost/ious"
	assert.NoError(t, conf.Validate())

	conf.Store = "badger"
	assert.Error(t, conf.Validate())
}
