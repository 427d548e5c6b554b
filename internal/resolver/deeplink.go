package resolver

import (
	"net/url"
	"strings"
)

// DeepLink rewrites destinations on well-known hosts into their native app
// scheme. Returns the input unchanged when no transform applies; callers use
// that as the "no deep link available" signal.
func DeepLink(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "open.spotify.com":
		// /track/abc -> spotify:track:abc
		if path != "" {
			return "spotify:" + strings.ReplaceAll(path, "/", ":")
		}
	case "youtube.com", "m.youtube.com":
		if path == "watch" {
			if id := u.Query().Get("v"); id != "" {
				return "vnd.youtube://" + id
			}
		}
	case "youtu.be":
		if path != "" {
			return "vnd.youtube://" + path
		}
	case "twitter.com", "x.com":
		if path != "" {
			return "twitter://" + path
		}
	case "instagram.com":
		if path != "" && !strings.Contains(path, "/") {
			return "instagram://user?username=" + path
		}
	case "tiktok.com":
		if path != "" {
			return "snssdk1233://" + path
		}
	}

	return rawURL
}
