package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splashos/glowtext/paint"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{" DARK ", Dark, false},
		{"system", System, false},
		{"", System, false},
		{"sepia", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTheme)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, Dark, Light.Opposite())
	assert.Equal(t, Light, Dark.Opposite())
	assert.Equal(t, Light, System.Opposite())
}

func TestBackdropContrast(t *testing.T) {
	assert.Equal(t, paint.MustHex("#030712"), Backdrop(Dark))
	assert.Equal(t, paint.White, Backdrop(Light))
	assert.Equal(t, Backdrop(Light), Backdrop(System))
	assert.NotEqual(t, Backdrop(Dark), Foreground(Dark))
	assert.NotEqual(t, Backdrop(Light), Foreground(Light))
}

func TestEnvPreference(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"unset", nil, false},
		{"scheme dark", map[string]string{EnvColorScheme: "dark"}, true},
		{"scheme light beats fgbg", map[string]string{EnvColorScheme: "Light", EnvColorFgBg: "15;0"}, false},
		{"fgbg dark", map[string]string{EnvColorFgBg: "15;0"}, true},
		{"fgbg three fields", map[string]string{EnvColorFgBg: "15;default;8"}, true},
		{"fgbg light", map[string]string{EnvColorFgBg: "0;15"}, false},
		{"fgbg garbage", map[string]string{EnvColorFgBg: "x;y"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := EnvPreference{Getenv: func(k string) string { return tt.env[k] }}
			assert.Equal(t, tt.want, p.PrefersDark())
			p.Subscribe(func(bool) {})()
		})
	}
}

func TestStaticPreferenceSubscribe(t *testing.T) {
	p := NewStaticPreference(false)
	var got []bool
	cancel := p.Subscribe(func(d bool) { got = append(got, d) })

	p.Set(true)
	p.Set(true)
	p.Set(false)
	cancel()
	p.Set(true)

	assert.Equal(t, []bool{true, false}, got)
	assert.True(t, p.PrefersDark())
}
