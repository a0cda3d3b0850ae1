package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: warn\n  log_format: structured\ntools:\n  branch_health:\n    num_days: 30\n    trunk: main\n    ignore_branches: [main, develop]\n"
	testTrunkEnvironmentNameConstant  = "BRANCHHEALTH_TOOLS_BRANCH_HEALTH_TRUNK"
)

func initializeWithArguments(testInstance *testing.T, arguments ...string) *Application {
	testInstance.Helper()

	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.ParseFlags(arguments))
	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	return application
}

func TestInitializeConfigurationUsesEmbeddedDefaults(testInstance *testing.T) {
	application := initializeWithArguments(testInstance)

	require.Equal(testInstance, "error", application.configuration.Common.LogLevel)
	require.True(testInstance, application.humanReadableLoggingEnabled())
	require.Equal(testInstance, 14, application.configuration.Tools.BranchHealth.ThresholdDays)
	require.Equal(testInstance, "master", application.configuration.Tools.BranchHealth.TrunkName)
	require.Equal(testInstance, []string{"master"}, application.configuration.Tools.BranchHealth.IgnoredBranches)
}

func TestInitializeConfigurationReadsExplicitConfigFile(testInstance *testing.T) {
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o600))

	application := initializeWithArguments(testInstance, "--config", configurationPath)

	branchHealth := application.configuration.Tools.BranchHealth
	require.Equal(testInstance, 30, branchHealth.ThresholdDays)
	require.Equal(testInstance, "main", branchHealth.TrunkName)
	require.Equal(testInstance, []string{"main", "develop"}, branchHealth.IgnoredBranches)
	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
	require.False(testInstance, application.humanReadableLoggingEnabled())

	recordedPath, recorded := application.commandContextAccessor.ConfigurationFilePath(application.rootCommand.Context())
	require.True(testInstance, recorded)
	require.Equal(testInstance, configurationPath, recordedPath)
}

func TestInitializeConfigurationHonorsEnvironment(testInstance *testing.T) {
	testInstance.Setenv(testTrunkEnvironmentNameConstant, "trunk")

	application := initializeWithArguments(testInstance)
	require.Equal(testInstance, "trunk", application.configuration.Tools.BranchHealth.TrunkName)
}

func TestInitializeConfigurationResolvesLogLevel(testInstance *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedLevel   string
		enabledLevel    zapcore.Level
		suppressedLevel zapcore.Level
	}{
		{
			name:            "configured_default",
			expectedLevel:   "error",
			enabledLevel:    zapcore.ErrorLevel,
			suppressedLevel: zapcore.WarnLevel,
		},
		{
			name:            "single_verbose",
			arguments:       []string{"-v"},
			expectedLevel:   "warn",
			enabledLevel:    zapcore.WarnLevel,
			suppressedLevel: zapcore.InfoLevel,
		},
		{
			name:            "double_verbose",
			arguments:       []string{"-vv"},
			expectedLevel:   "info",
			enabledLevel:    zapcore.InfoLevel,
			suppressedLevel: zapcore.DebugLevel,
		},
		{
			name:            "triple_verbose",
			arguments:       []string{"-vvv"},
			expectedLevel:   "debug",
			enabledLevel:    zapcore.DebugLevel,
			suppressedLevel: zapcore.DebugLevel - 1,
		},
		{
			name:            "saturated_verbose",
			arguments:       []string{"-vvvvvvv"},
			expectedLevel:   "debug",
			enabledLevel:    zapcore.DebugLevel,
			suppressedLevel: zapcore.DebugLevel - 1,
		},
		{
			name:            "explicit_level_wins",
			arguments:       []string{"-vvvv", "--log-level", "warn"},
			expectedLevel:   "warn",
			enabledLevel:    zapcore.WarnLevel,
			suppressedLevel: zapcore.InfoLevel,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			application := initializeWithArguments(testInstance, testCase.arguments...)

			require.Equal(testInstance, testCase.expectedLevel, application.configuration.Common.LogLevel)
			require.True(testInstance, application.logger.Core().Enabled(testCase.enabledLevel))
			require.False(testInstance, application.logger.Core().Enabled(testCase.suppressedLevel))
		})
	}
}

func TestInitializeConfigurationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.ParseFlags([]string{"--log-level", "chatty"}))
	require.Error(testInstance, application.initializeConfiguration(application.rootCommand))
}
