package provider

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/zoneaudit/internal/record"
)

func TestCloudflare_Parse(t *testing.T) {
	cf := NewCloudflare(Options{})

	row := record.NewMapRow(2,
		"Name", "www.example.com",
		"Type", "A",
		"Content", "192.0.2.10",
		"TTL", "1",
		"Proxied", "True")

	rec, err := cf.Parse(row)
	require.NoError(t, err)
	assert.Equal(t, "www.example.com", rec.Name)
	assert.Equal(t, record.TypeA, rec.Type)
	assert.Equal(t, "192.0.2.10", rec.Content)
	assert.Equal(t, CloudflareDefaultTTL, rec.TTL)
	assert.Equal(t, "true", rec.ProviderSpecific["proxied"])
	assert.Equal(t, "cloudflare", rec.SourceProvider)
	assert.Equal(t, 2, rec.Line)
}

func TestCloudflare_ParseAutoAndExplicitTTL(t *testing.T) {
	cf := NewCloudflare(Options{})

	rec, err := cf.Parse(record.NewMapRow(2, "Name", "a.example.com", "Type", "A", "Content", "192.0.2.1", "TTL", "auto"))
	require.NoError(t, err)
	assert.Equal(t, CloudflareDefaultTTL, rec.TTL)

	rec, err = cf.Parse(record.NewMapRow(3, "Name", "a.example.com", "Type", "A", "Content", "192.0.2.1", "TTL", "120"))
	require.NoError(t, err)
	assert.Equal(t, 120, rec.TTL)
	assert.Nil(t, rec.ProviderSpecific, "no provider-specific fields should leave the map nil")
}

func TestCloudflare_ParseMXWithPriorityColumn(t *testing.T) {
	cf := NewCloudflare(Options{})

	rec, err := cf.Parse(record.NewMapRow(4,
		"Name", "example.com", "Type", "MX", "Content", "mail.example.com", "TTL", "3600", "Priority", "10"))
	require.NoError(t, err)
	require.NotNil(t, rec.Priority)
	assert.Equal(t, 10, *rec.Priority)
	assert.Equal(t, "mail.example.com", rec.Content)
}

func TestBase_RowErrors(t *testing.T) {
	cf := NewCloudflare(Options{})

	tests := []struct {
		name   string
		row    record.MapRow
		reason string
	}{
		{
			name:   "missing type",
			row:    record.NewMapRow(5, "Name", "www.example.com", "Type", "", "Content", "192.0.2.1"),
			reason: "missing record type",
		},
		{
			name:   "unsupported type",
			row:    record.NewMapRow(6, "Name", "www.example.com", "Type", "WKS", "Content", "x"),
			reason: "unsupported record type",
		},
		{
			name:   "missing name",
			row:    record.NewMapRow(7, "Name", "", "Type", "A", "Content", "192.0.2.1"),
			reason: "missing record name",
		},
		{
			name:   "missing content",
			row:    record.NewMapRow(8, "Name", "www.example.com", "Type", "A", "Content", " "),
			reason: "missing record content",
		},
		{
			name:   "malformed ttl",
			row:    record.NewMapRow(9, "Name", "www.example.com", "Type", "A", "Content", "192.0.2.1", "TTL", "soon"),
			reason: "malformed ttl",
		},
		{
			name:   "negative ttl",
			row:    record.NewMapRow(10, "Name", "www.example.com", "Type", "A", "Content", "192.0.2.1", "TTL", "-5"),
			reason: "malformed ttl",
		},
		{
			name:   "malformed priority",
			row:    record.NewMapRow(11, "Name", "example.com", "Type", "MX", "Content", "mail.example.com", "Priority", "high"),
			reason: "malformed priority",
		},
		{
			name:   "malformed timestamp",
			row:    record.NewMapRow(12, "Name", "www.example.com", "Type", "A", "Content", "192.0.2.1", "Modified On", "last tuesday"),
			reason: "malformed modified timestamp",
		},
		{
			name:   "empty row",
			row:    record.NewMapRow(13),
			reason: "missing record type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cf.Parse(tt.row)
			require.Error(t, err)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Contains(t, rowErr.Reason, tt.reason)
			assert.Equal(t, tt.row.Line(), rowErr.Line)
			assert.Equal(t, "cloudflare", rowErr.Provider)
		})
	}
}

func TestRowError_Error(t *testing.T) {
	assert.Equal(t, "line 7: missing record type", (&RowError{Line: 7, Reason: "missing record type"}).Error())
	assert.Equal(t, "missing record type", (&RowError{Reason: "missing record type"}).Error())
}

func TestRoute53_Parse(t *testing.T) {
	r53 := NewRoute53(Options{})

	t.Run("json multi-value", func(t *testing.T) {
		rec, err := r53.Parse(record.NewMapRow(2,
			"Name", "www.example.com.", "Type", "A", "Value", `["192.0.2.1","192.0.2.2"]`, "TTL", "60"))
		require.NoError(t, err)
		assert.Equal(t, "www.example.com", rec.Name)
		assert.Equal(t, "192.0.2.1", rec.Content)
		assert.Equal(t, "192.0.2.1\n192.0.2.2", rec.ProviderSpecific["values"])
		assert.Equal(t, 60, rec.TTL)
	})

	t.Run("newline multi-value", func(t *testing.T) {
		rec, err := r53.Parse(record.NewMapRow(3,
			"Name", "www.example.com.", "Type", "A", "Value", "192.0.2.1\n192.0.2.2\n", "TTL", "60"))
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.1", rec.Content)
		assert.Equal(t, "192.0.2.1\n192.0.2.2", rec.ProviderSpecific["values"])
	})

	t.Run("alias target", func(t *testing.T) {
		rec, err := r53.Parse(record.NewMapRow(4,
			"Name", "app.example.com.", "Type", "A", "Value", "", "TTL", "",
			"Alias Target", "dualstack.lb-1.us-east-1.elb.amazonaws.com.",
			"Routing Policy", "Simple"))
		require.NoError(t, err)
		assert.Equal(t, "dualstack.lb-1.us-east-1.elb.amazonaws.com", rec.Content)
		assert.Equal(t, "true", rec.ProviderSpecific["alias"])
		assert.Equal(t, "Simple", rec.ProviderSpecific["routing_policy"])
		assert.Equal(t, Route53DefaultTTL, rec.TTL)
	})

	t.Run("txt unquoted", func(t *testing.T) {
		rec, err := r53.Parse(record.NewMapRow(5,
			"Name", "example.com.", "Type", "TXT", "Value", `"v=spf1 include:_spf.example.com ~all"`, "TTL", "300"))
		require.NoError(t, err)
		assert.Equal(t, "v=spf1 include:_spf.example.com ~all", rec.Content)
	})

	t.Run("embedded mx priority", func(t *testing.T) {
		rec, err := r53.Parse(record.NewMapRow(6,
			"Name", "example.com.", "Type", "MX", "Value", "10 mail.example.com.", "TTL", "300"))
		require.NoError(t, err)
		require.NotNil(t, rec.Priority)
		assert.Equal(t, 10, *rec.Priority)
		assert.Equal(t, "mail.example.com", rec.Content)
	})
}

func TestGoDaddy_Parse(t *testing.T) {
	gd := NewGoDaddy(Options{Zone: "example.com"})

	t.Run("root and relative names", func(t *testing.T) {
		rec, err := gd.Parse(record.NewMapRow(2, "Host", "@", "Type", "A", "Points To", "192.0.2.1", "TTL", "1 Hour"))
		require.NoError(t, err)
		assert.Equal(t, "example.com", rec.Name)
		assert.Equal(t, 3600, rec.TTL)

		rec, err = gd.Parse(record.NewMapRow(3, "Host", "www", "Type", "CNAME", "Points To", "@", "TTL", "600"))
		require.NoError(t, err)
		assert.Equal(t, "www.example.com", rec.Name)
	})

	t.Run("semicolon multi-value", func(t *testing.T) {
		rec, err := gd.Parse(record.NewMapRow(4, "Host", "api", "Type", "A", "Points To", "192.0.2.1; 192.0.2.2", "TTL", ""))
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.1", rec.Content)
		assert.Equal(t, "192.0.2.1\n192.0.2.2", rec.ProviderSpecific["values"])
		assert.Equal(t, GoDaddyDefaultTTL, rec.TTL)
	})

	t.Run("srv columns", func(t *testing.T) {
		rec, err := gd.Parse(record.NewMapRow(5,
			"Host", "@", "Type", "SRV", "Points To", "sip.example.com", "TTL", "3600",
			"Priority", "10", "Weight", "5", "Port", "5060", "Service", "_sip", "Protocol", "_tcp"))
		require.NoError(t, err)
		require.NotNil(t, rec.Priority)
		require.NotNil(t, rec.Weight)
		require.NotNil(t, rec.Port)
		assert.Equal(t, 10, *rec.Priority)
		assert.Equal(t, 5, *rec.Weight)
		assert.Equal(t, 5060, *rec.Port)
		assert.Equal(t, "_sip", rec.ProviderSpecific["service"])
		assert.Equal(t, "_tcp", rec.ProviderSpecific["protocol"])
	})
}

func TestDigitalOcean_Parse(t *testing.T) {
	do := NewDigitalOcean(Options{Zone: "example.com"})

	rec, err := do.Parse(record.NewMapRow(2,
		"type", "SRV", "name", "_sip._tcp", "data", "10 5 5060 sip.example.com.", "ttl", ""))
	require.NoError(t, err)
	assert.Equal(t, "_sip._tcp.example.com", rec.Name)
	assert.Equal(t, "sip.example.com", rec.Content)
	assert.Equal(t, DigitalOceanDefaultTTL, rec.TTL)
	require.NotNil(t, rec.Priority)
	assert.Equal(t, 10, *rec.Priority)
	assert.Equal(t, 5, *rec.Weight)
	assert.Equal(t, 5060, *rec.Port)

	rec, err = do.Parse(record.NewMapRow(3,
		"type", "CAA", "name", "@", "data", "letsencrypt.org", "ttl", "3600", "flags", "0", "tag", "issue"))
	require.NoError(t, err)
	assert.Equal(t, "example.com", rec.Name)
	assert.Equal(t, "0", rec.ProviderSpecific["flags"])
	assert.Equal(t, "issue", rec.ProviderSpecific["tag"])
}

func TestGeneric_Parse(t *testing.T) {
	g := NewGeneric(Options{})

	t.Run("comma multi-value and timestamps", func(t *testing.T) {
		rec, err := g.Parse(record.NewMapRow(2,
			"hostname", "old-api.example.com", "record_type", "a", "value", "192.0.2.1,192.0.2.2",
			"created", "2023-01-15", "modified", "2023-06-01T10:00:00Z"))
		require.NoError(t, err)
		assert.Equal(t, record.TypeA, rec.Type)
		assert.Equal(t, "192.0.2.1", rec.Content)
		assert.Equal(t, "192.0.2.1\n192.0.2.2", rec.ProviderSpecific["values"])
		assert.Equal(t, GenericDefaultTTL, rec.TTL)
		require.NotNil(t, rec.CreatedAt)
		require.NotNil(t, rec.ModifiedAt)
		assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), *rec.CreatedAt)
		assert.Equal(t, time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC), *rec.ModifiedAt)
	})

	t.Run("txt commas are not split", func(t *testing.T) {
		rec, err := g.Parse(record.NewMapRow(3,
			"name", "example.com", "type", "TXT", "content", `"a=1, b=2"`))
		require.NoError(t, err)
		assert.Equal(t, "a=1, b=2", rec.Content)
		assert.Nil(t, rec.ProviderSpecific)
	})
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 3600, false},
		{"auto", 3600, false},
		{"300", 300, false},
		{" 86400 ", 86400, false},
		{"1 Hour", 3600, false},
		{"30m", 1800, false},
		{"2 days", 172800, false},
		{"600 seconds", 600, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
		{"5 fortnights", 0, true},
		{"2147483647", 2147483647, false},
		{"2147483648", 0, true},
		{"24855 days", 2147472000, false},
		{"24856 days", 0, true},
		{"999999999999999d", 0, true},
		{"99999999999999999999 seconds", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseTTL(tt.raw, 3600)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-05", "2024-03-05T00:00:00Z", "03/05/2024", "2024-03-05 00:00:00", "1709596800"} {
		t.Run(raw, func(t *testing.T) {
			got, err := parseTimestamp(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestUnquoteTXT(t *testing.T) {
	tests := map[string]string{
		`plain text`:               "plain text",
		`"quoted"`:                 "quoted",
		`"v=spf1 " "include:x"`:    "v=spf1 include:x",
		`"say \"hi\""`:             `say "hi"`,
		`"`:                        `"`,
		`"v=DKIM1; k=rsa; p=MIGf"`: "v=DKIM1; k=rsa; p=MIGf",
	}
	for in, want := range tests {
		assert.Equal(t, want, unquoteTXT(in), "input %s", in)
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		relative bool
		want     string
	}{
		{"@", "example.com", false, "example.com"},
		{"@", "", false, "@"},
		{"www.example.com.", "", false, "www.example.com"},
		{"www", "example.com", true, "www.example.com"},
		{"www", "example.com", false, "www"},
		{"www.example.com", "example.com.", true, "www.example.com"},
		{"Example.COM", "example.com", true, "Example.COM"},
		{"_dmarc", "example.com", true, "_dmarc.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveName(tt.name, tt.zone, tt.relative), "%q in %q", tt.name, tt.zone)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	rows := []record.MapRow{
		record.NewMapRow(1),
		record.NewMapRow(2, "Type", "SRV", "Name", "x", "Content", "1 2"),
		record.NewMapRow(3, "Type", "MX", "Name", "x", "Content", "notanumber mail"),
		record.NewMapRow(4, "Type", "TXT", "Name", "x", "Content", `"unterminated`),
		record.NewMapRow(5, "Type", "A", "Name", strings.Repeat("a", 10000), "Content", "[", "Value", "["),
	}
	for _, a := range DefaultRegistry(Options{Zone: "example.com"}).All() {
		for _, row := range rows {
			assert.NotPanics(t, func() { _, _ = a.Parse(row) }, "%s line %d", a.Name(), row.Line())
		}
	}
}
