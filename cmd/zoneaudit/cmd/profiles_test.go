package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesCommandStructure(t *testing.T) {
	assert.NotNil(t, profilesCmd)
	assert.Equal(t, "profiles", profilesCmd.Use)
	assert.NotEmpty(t, profilesCmd.Short)
	assert.NotEmpty(t, profilesCmd.Long)
	assert.NotNil(t, profilesCmd.RunE)
}

func TestRunProfiles(t *testing.T) {
	withProfiles := writeFile(t, "with-profiles.yaml", `logging:
  level: error
profiles:
  large:
    description: Large registrar exports
    analysis:
      mode: distributed
    workers:
      count: 8
  godaddy:
    rules_file: godaddy-rules.yaml
    analysis:
      provider: godaddy
      zone: example.com
`)
	noProfiles := writeFile(t, "no-profiles.yaml", "logging:\n  level: error\n")

	tests := []struct {
		name       string
		configFile string
		want       []string
		wantErr    bool
	}{
		{
			name:       "profiles listed in order",
			configFile: withProfiles,
			want: []string{
				"1. godaddy", "Provider:     godaddy", "Zone:         example.com", "Rules File:   godaddy-rules.yaml",
				"2. large", "Description:  Large registrar exports", "Mode:         distributed", "Workers:      8 x 1000 rows",
			},
		},
		{
			name:       "no profiles",
			configFile: noProfiles,
			want:       []string{"No profiles defined"},
		},
		{
			name:       "nonexistent config",
			configFile: "nonexistent-config.yaml",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfigFile(t, tt.configFile)

			var buf bytes.Buffer
			profilesCmd.SetOut(&buf)
			defer profilesCmd.SetOut(nil)

			err := runProfiles(profilesCmd, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
