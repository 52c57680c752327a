package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultHTTPClient(t *testing.T) {
	client := NewDefaultHTTPClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestFindCookie(t *testing.T) {
	cookies := []*http.Cookie{
		nil,
		{Name: "XSRF-TOKEN", Value: "abc"},
		{Name: "laravel_session", Value: "s1"},
		{Name: "laravel_session", Value: "s2"},
	}

	got := FindCookie(cookies, "laravel_session")
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.Value)

	assert.Nil(t, FindCookie(cookies, "missing"))
	assert.Nil(t, FindCookie(nil, "XSRF-TOKEN"))
}

func TestCookieHeader(t *testing.T) {
	assert.Equal(t, "", CookieHeader())
	assert.Equal(t,
		"XSRF-TOKEN=a%3D+b; laravel_session=x\"y",
		CookieHeader([2]string{"XSRF-TOKEN", "a%3D+b"}, [2]string{"laravel_session", "x\"y"}),
	)
}
