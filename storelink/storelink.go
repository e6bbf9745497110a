// Package storelink builds and opens app store links.
package storelink

import (
	"context"
	"fmt"
	"net/url"
)

// Builder builds store links for an app identifier. Every method returns ""
// for an empty identifier.
type Builder interface {
	// StoreURL is the link placed in decision reports
	StoreURL(id string) string
	// DeepLink opens the store app directly
	DeepLink(id string) string
	// WebURL is the browser fallback for DeepLink
	WebURL(id string) string
}

// Opener launches a URL on the host
type Opener interface {
	OpenURL(ctx context.Context, link string) error
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) OpenURL(ctx context.Context, link string) error {
	return f(ctx, link)
}

// PlayStore builds Google Play links from an Android package name
type PlayStore struct{}

func (p PlayStore) StoreURL(id string) string {
	return p.WebURL(id)
}

func (PlayStore) DeepLink(id string) string {
	if id == "" {
		return ""
	}
	return "market://details?id=" + url.QueryEscape(id)
}

func (PlayStore) WebURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://play.google.com/store/apps/details?id=" + url.QueryEscape(id)
}

// AppStore builds Apple App Store links from a numeric app ID
type AppStore struct{}

func (a AppStore) StoreURL(id string) string {
	return a.DeepLink(id)
}

func (AppStore) DeepLink(id string) string {
	if id == "" {
		return ""
	}
	return "itms-apps://itunes.apple.com/app/id" + url.PathEscape(id)
}

func (AppStore) WebURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://apps.apple.com/app/id" + url.PathEscape(id)
}

// Link is a resolved deep link with its web fallback
type Link struct {
	DeepLink string `json:"deepLink"`
	WebURL   string `json:"webUrl"`
}

// Resolve builds both links for id
func Resolve(b Builder, id string) Link {
	return Link{DeepLink: b.DeepLink(id), WebURL: b.WebURL(id)}
}

// Open launches the deep link for id, falling back to the web URL if the
// deep link cannot be opened. An empty id is a no-op.
func Open(ctx context.Context, opener Opener, b Builder, id string) error {
	link := Resolve(b, id)
	if link.DeepLink == "" && link.WebURL == "" {
		return nil
	}

	deepErr := opener.OpenURL(ctx, link.DeepLink)
	if deepErr == nil {
		return nil
	}
	if link.WebURL == "" || link.WebURL == link.DeepLink {
		return fmt.Errorf("failed to open %s: %w", link.DeepLink, deepErr)
	}

	if err := opener.OpenURL(ctx, link.WebURL); err != nil {
		return fmt.Errorf("failed to open %s after deep link failed (%v): %w", link.WebURL, deepErr, err)
	}
	return nil
}
