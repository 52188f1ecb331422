package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "test.log")

	require.NoError(t, Init(Config{Level: "debug", OutputFile: file, Console: &console}))
	t.Cleanup(func() { _ = Close() })

	Debugf("下单 %s", "SBIN")
	logrus.WithField("component", "test").Info("全局日志")

	assert.Contains(t, console.String(), "下单 SBIN")
	assert.Contains(t, console.String(), "全局日志")
	assert.Equal(t, file, GetCurrentLogFile())

	require.NoError(t, Close())
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "下单 SBIN")
	assert.Contains(t, string(data), "component=test")
}

func TestInitLevel(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn", Console: &console}))

	Infof("不应输出")
	Warnf("应输出")
	assert.NotContains(t, console.String(), "不应输出")
	assert.Contains(t, console.String(), "应输出")

	require.NoError(t, Init(Config{Level: "nonsense", Console: &console}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
}
