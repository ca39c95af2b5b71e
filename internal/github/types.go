// SPDX-License-Identifier: MIT

package github

import "github.com/tidwall/gjson"

// RepoInfo is the subset of repository metadata shown on the site.
type RepoInfo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    *string  `json:"language"`
	URL         string   `json:"url"`
	Topics      []string `json:"topics"`
	Fork        bool     `json:"-"`
}

// Release is a published GitHub release.
type Release struct {
	TagName     string  `json:"tag_name"`
	Name        string  `json:"name"`
	Body        *string `json:"body"`
	PublishedAt string  `json:"published_at"`
	HTMLURL     string  `json:"html_url"`
}

// Commit is a commit as listed by the commits endpoint.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Date    string `json:"date"`
	HTMLURL string `json:"html_url"`
}

// ContentEntry is one item of a repository directory listing.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // file|dir|symlink|submodule
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url,omitempty"`
}

// ChangelogEntry is a release or commit rendered in a changelog.
type ChangelogEntry struct {
	Version *string `json:"version"`
	Title   string  `json:"title"`
	Body    *string `json:"body"`
	Date    string  `json:"date"`
	URL     string  `json:"url"`
	Type    string  `json:"type"` // release|commit
}

func optionalString(r gjson.Result) *string {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	s := r.String()
	return &s
}

func repoFromJSON(r gjson.Result) RepoInfo {
	topics := []string{}
	r.Get("topics").ForEach(func(_, t gjson.Result) bool {
		topics = append(topics, t.String())
		return true
	})
	return RepoInfo{
		Name:        r.Get("name").String(),
		FullName:    r.Get("full_name").String(),
		Description: optionalString(r.Get("description")),
		Stars:       int(r.Get("stargazers_count").Int()),
		Forks:       int(r.Get("forks_count").Int()),
		Language:    optionalString(r.Get("language")),
		URL:         r.Get("html_url").String(),
		Topics:      topics,
		Fork:        r.Get("fork").Bool(),
	}
}

func releaseFromJSON(r gjson.Result) Release {
	return Release{
		TagName:     r.Get("tag_name").String(),
		Name:        r.Get("name").String(),
		Body:        optionalString(r.Get("body")),
		PublishedAt: r.Get("published_at").String(),
		HTMLURL:     r.Get("html_url").String(),
	}
}

func commitFromJSON(r gjson.Result) Commit {
	return Commit{
		SHA:     r.Get("sha").String(),
		Message: r.Get("commit.message").String(),
		Date:    r.Get("commit.author.date").String(),
		HTMLURL: r.Get("html_url").String(),
	}
}

func contentFromJSON(r gjson.Result) ContentEntry {
	return ContentEntry{
		Name:        r.Get("name").String(),
		Path:        r.Get("path").String(),
		Type:        r.Get("type").String(),
		Size:        r.Get("size").Int(),
		DownloadURL: r.Get("download_url").String(),
	}
}
