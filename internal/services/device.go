package services

import (
	"strings"

	"github.com/dubinc/dub-sub007/internal/resolver"

	"github.com/mssola/user_agent"
)

// previewBots are crawlers that fetch links to build unfurl previews; the
// user_agent library misses some of them.
var previewBots = []string{
	"facebookexternalhit",
	"whatsapp",
	"slackbot",
	"twitterbot",
	"telegrambot",
	"discordbot",
	"linkedinbot",
	"pinterest",
	"vkshare",
	"metainspector",
}

// ClassifyDevice derives the OS family and bot flag the routing rules consume
// from a raw User-Agent string. Pure function of the request metadata.
func ClassifyDevice(uaString string) resolver.Device {
	ua := user_agent.New(uaString)
	browser, _ := ua.Browser()

	d := resolver.Device{
		OS:      osFamily(ua.OS()),
		Browser: browser,
		Bot:     ua.Bot(),
	}

	if !d.Bot {
		lower := strings.ToLower(uaString)
		for _, bot := range previewBots {
			if strings.Contains(lower, bot) {
				d.Bot = true
				break
			}
		}
	}

	return d
}

// DeviceType buckets a request the way the click dashboard expects.
func DeviceType(uaString string) string {
	ua := user_agent.New(uaString)
	switch {
	case ua.Bot():
		return "Bot"
	case ua.Mobile():
		return "Mobile"
	default:
		return "Desktop"
	}
}

func osFamily(os string) string {
	lower := strings.ToLower(os)
	switch {
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"), strings.Contains(lower, "ios"):
		return "ios"
	case strings.Contains(lower, "android"):
		return "android"
	default:
		return lower
	}
}
