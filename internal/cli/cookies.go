// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/jeranaias/tensorchat/internal/util"
)

// =============================================================================
// PERSISTENT SESSION COOKIE
// =============================================================================

// savedCookie is the on-disk form of one backend cookie.
type savedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// cookieFile maps a backend base URL to its cookies.
type cookieFile map[string][]savedCookie

// sessionJar is a cookie jar whose cookies for one backend survive
// between runs, so a restarted client resumes the same backend session
// the way a reloaded browser tab does.
type sessionJar struct {
	*cookiejar.Jar
	path    string
	baseURL *url.URL

	// attrs keeps the Path and Expires the server sent for each cookie
	// name. The embedded jar only hands back names and values.
	mu    sync.Mutex
	attrs map[string]savedCookie
}

// newSessionJar creates a jar for baseURL, seeded from path unless fresh
// is set. An empty path disables persistence.
func newSessionJar(path, baseURL string, fresh bool) (*sessionJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	j := &sessionJar{Jar: jar, path: path, baseURL: u, attrs: make(map[string]savedCookie)}

	if path == "" || fresh {
		return j, nil
	}
	file, err := readCookieFile(path)
	if err != nil {
		return nil, err
	}
	var cookies []*http.Cookie
	for _, c := range file[u.String()] {
		if !c.Expires.IsZero() && c.Expires.Before(time.Now()) {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	if len(cookies) > 0 {
		j.SetCookies(u, cookies)
	}
	return j, nil
}

// SetCookies stores cookies in the jar and remembers their attributes for
// Save. Max-Age is converted to an absolute expiry.
func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	now := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if c.MaxAge < 0 {
			delete(j.attrs, c.Name)
			continue
		}
		attr := savedCookie{Path: c.Path, Expires: c.Expires}
		if c.MaxAge > 0 {
			attr.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.attrs[c.Name] = attr
	}
}

// Save writes the jar's cookies for the backend, keeping entries for
// other backends.
func (j *sessionJar) Save() error {
	if j.path == "" {
		return nil
	}
	file, err := readCookieFile(j.path)
	if err != nil {
		file = cookieFile{}
	}

	var saved []savedCookie
	j.mu.Lock()
	for _, c := range j.Cookies(j.baseURL) {
		sc := savedCookie{Name: c.Name, Value: c.Value, Path: "/"}
		if attr, ok := j.attrs[c.Name]; ok {
			if attr.Path != "" {
				sc.Path = attr.Path
			}
			sc.Expires = attr.Expires
		}
		saved = append(saved, sc)
	}
	j.mu.Unlock()
	key := j.baseURL.String()
	if len(saved) == 0 {
		delete(file, key)
	} else {
		file[key] = saved
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(j.path, data, 0600)
}

func readCookieFile(path string) (cookieFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cookieFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	file := cookieFile{}
	if err := json.Unmarshal(data, &file); err != nil {
		// Corrupt files are treated as empty.
		return cookieFile{}, nil
	}
	return file, nil
}
