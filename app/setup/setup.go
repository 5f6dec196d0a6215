package setup

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"

	"github.com/lysyi3m/rss-toot/app/config"
	"github.com/lysyi3m/rss-toot/app/mastodon"
)

// Run walks through first-run configuration: instance credentials (existing
// ones or a freshly registered app) and the first watched feed. It saves the
// config file and returns it, along with whether entries already present in
// the feed should be posted too.
func Run(ctx context.Context, configPath string, httpClient *http.Client) (*config.Config, bool, error) {
	instanceURL, err := prompt.New().Ask("What is your Mastodon instance URL?").
		Input("https://mastodon.social")
	if err != nil {
		return nil, false, err
	}

	haveApp, err := yesNo("Do you have your app credentials already?")
	if err != nil {
		return nil, false, err
	}

	name := "rss-toot"
	var clientID, clientSecret, accessToken string

	if haveApp {
		clientID, err = prompt.New().Ask("What is your app's client id:").Input("")
		if err != nil {
			return nil, false, err
		}
		clientSecret, err = prompt.New().Ask("What is your client secret:").Input("")
		if err != nil {
			return nil, false, err
		}
		accessToken, err = prompt.New().Ask("access_token:").Input("")
		if err != nil {
			return nil, false, err
		}
	} else {
		fmt.Println("Ok, I'll need a few things in order to get your access token")

		name, err = prompt.New().Ask("app name (e.g. rss-toot):").Input(name)
		if err != nil {
			return nil, false, err
		}

		app, err := mastodon.RegisterApp(ctx, httpClient, instanceURL, name)
		if err != nil {
			return nil, false, err
		}
		clientID = app.ClientID
		clientSecret = app.ClientSecret

		username, err := prompt.New().Ask("mastodon username (email):").Input("")
		if err != nil {
			return nil, false, err
		}
		password, err := prompt.New().Ask("mastodon password (not stored):").
			Input("", input.WithEchoMode(input.EchoNone))
		if err != nil {
			return nil, false, err
		}

		accessToken, err = mastodon.ObtainToken(ctx, httpClient, instanceURL, app, username, password)
		if err != nil {
			return nil, false, err
		}
	}

	feedURL, err := prompt.New().Ask("RSS/Atom feed URL to watch:").Input("")
	if err != nil {
		return nil, false, err
	}

	oldPosts, err := yesNo("Shall already existing entries be posted, too?")
	if err != nil {
		return nil, false, err
	}

	includeImages, err := yesNo("Do you want to attach images (the first 4) found in entries to your post?")
	if err != nil {
		return nil, false, err
	}

	conf := &config.Config{
		Name:         name,
		URL:          instanceURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AccessToken:  accessToken,
		Feeds: []config.Feed{
			{URL: feedURL, Template: config.DefaultTemplate, IncludeImages: includeImages},
		},
	}

	if err := config.Save(configPath, conf); err != nil {
		return nil, false, err
	}

	fmt.Println("")
	fmt.Printf("Your configuration has been saved to %s\n", configPath)
	fmt.Println("Add a line like this to your crontab to check every 15 minutes:")
	fmt.Println("*/15 * * * * /usr/local/bin/rss-toot")
	fmt.Println("")

	return conf, oldPosts, nil
}

func yesNo(question string) (bool, error) {
	answer, err := prompt.New().Ask(question + " [y/n]").Input("y")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "1", nil
}
