package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileImagePolicy_IsProfileImage(t *testing.T) {
	policy := ProfileImagePolicy{MaxSquareDim: DefaultMaxSquareDim}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://pbs.twimg.com/profile_images/1/a.jpg", true},
		{"https://media.licdn.com/dms/image/C4E03AQ/profile-displayphoto-shrink_100_100/0/x", true},
		{"https://cdn.example.com/photos/PFP.png", true},
		{"https://cdn.example.com/team/headshot-jane.jpg", true},
		{"https://www.instagram.com/p/abc123/media", true},
		{"https://cdn.example.com/img/200x200/a.jpg", true},
		{"https://cdn.example.com/img/48x48.jpg", true},
		{"https://cdn.example.com/a.jpg?w=64&h=64", true},
		{"https://cdn.example.com/a.jpg?width=150&height=150", true},
		{"https://cdn.example.com/img/201x201/a.jpg", false},
		{"https://cdn.example.com/img/1200x630/a.jpg", false},
		{"https://cdn.example.com/a.jpg?w=640&h=480", false},
		{"https://cdn.example.com/photos/landscape.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsProfileImage(tt.url))
		})
	}
}

func TestProfileImagePolicy_SizeCheckDisabled(t *testing.T) {
	policy := ProfileImagePolicy{}

	assert.False(t, policy.IsProfileImage("https://cdn.example.com/img/64x64/a.jpg"))
	assert.True(t, policy.IsProfileImage("https://cdn.example.com/avatar/a.jpg"))
}

func TestProfileImagePolicy_Excludes(t *testing.T) {
	policy := ProfileImagePolicy{MaxSquareDim: DefaultMaxSquareDim}

	assert.True(t, policy.Excludes("https://cdn.example.com/a.png", "emoji"))
	assert.True(t, policy.Excludes("https://cdn.example.com/icons/share.svg", ""))
	assert.True(t, policy.Excludes("https://cdn.example.com/brand/Logo.svg", ""))
	assert.True(t, policy.Excludes("https://cdn.example.com/a.png", "EntityPhoto-circle profile-photo"))
	assert.False(t, policy.Excludes("https://cdn.example.com/media/chart.png", "content-image"))
}
