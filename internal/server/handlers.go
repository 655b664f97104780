package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/mxmehl/home-stream/internal/logutil"
	"github.com/mxmehl/home-stream/internal/media"
	"github.com/mxmehl/home-stream/internal/stream"
)

type (
	loginView struct {
		Error string
	}

	crumbView struct {
		Name string
		Href string
	}

	entryView struct {
		Name string
		Href string
		Dir  bool
	}

	browseView struct {
		User    string
		Title   string
		Crumbs  []crumbView
		Entries []entryView
	}

	playView struct {
		User      string
		Name      string
		StreamURL string
		BackHref  string
		IsAudio   bool
		MimeType  string
	}
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/browse/", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/browse/", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if !s.opts.Creds.Verify(username, password) {
		logger := logutil.GetOrDefault(r.Context())
		logger.Info().Msg("rejected login attempt")
		s.render(w, r, http.StatusUnauthorized, "login.html", loginView{Error: "Invalid credentials"})
		return
	}
	token, err := s.opts.Codec.IssueSession(username)
	if err != nil {
		http.Error(w, "unable to create session", http.StatusInternalServerError)
		return
	}
	s.setSessionCookie(w, token, int(s.opts.SessionTTL.Seconds()))
	logger := logutil.GetOrDefault(r.Context())
	logger.Info().Str("user", username).Msg("login successful")
	http.Redirect(w, r, "/browse/", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, "", -1)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.opts.Version,
	})
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	dir := cleanSlugPath(httprouter.ParamsFromContext(r.Context()).ByName("dir"))
	abs, err := s.opts.Library.Resolve(dir)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		http.NotFound(w, r)
		return
	}
	entries, err := s.opts.Library.List(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	view := browseView{User: user, Title: "Overview", Crumbs: s.crumbs(abs, dir)}
	if dir != "" {
		view.Title = filepath.Base(abs)
	}
	for _, entry := range entries {
		href := "/play/" + path.Join(dir, entry.Slug)
		if entry.Dir {
			href = "/browse/" + path.Join(dir, entry.Slug)
		}
		view.Entries = append(view.Entries, entryView{Name: entry.Name, Href: href, Dir: entry.Dir})
	}
	s.render(w, r, http.StatusOK, "browse.html", view)
}

// crumbs builds the breadcrumb trail from the real (display) names while
// linking through the slugged path segments.
func (s *Server) crumbs(abs, dir string) []crumbView {
	out := []crumbView{{Name: "Overview", Href: "/browse/"}}
	if dir == "" {
		return out
	}
	rel, err := filepath.Rel(s.opts.Library.Root(), abs)
	if err != nil || rel == "." {
		return out
	}
	realParts := strings.Split(rel, string(os.PathSeparator))
	slugParts := strings.Split(dir, "/")
	var slugSoFar []string
	for i, slug := range slugParts {
		slugSoFar = append(slugSoFar, slug)
		name := slug
		if i < len(realParts) {
			name = realParts[i]
		}
		out = append(out, crumbView{Name: name, Href: "/browse/" + strings.Join(slugSoFar, "/")})
	}
	return out
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	user, ok := s.sessionUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	file := cleanSlugPath(httprouter.ParamsFromContext(r.Context()).ByName("file"))
	abs, err := s.opts.Library.Resolve(file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	kind := s.opts.Library.Kind(abs)
	if kind == media.KindOther {
		http.NotFound(w, r)
		return
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	token, err := s.opts.Codec.IssueStream(user, file)
	if err != nil {
		http.Error(w, "unable to create stream token", http.StatusInternalServerError)
		return
	}
	back := "/browse/"
	if dir := path.Dir(file); dir != "." {
		back += dir
	}
	s.render(w, r, http.StatusOK, "play.html", playView{
		User:      user,
		Name:      filepath.Base(abs),
		StreamURL: "/stream/" + token + "/" + file,
		BackHref:  back,
		IsAudio:   kind == media.KindAudio,
		MimeType:  s.opts.Library.MimeType(abs),
	})
}

// stream checks the token (signature, expiry, path) and the session
// (user must match the token) before handing the file to the range
// server. Possession of the URL alone is never enough.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	file := cleanSlugPath(params.ByName("file"))

	claims, err := s.opts.Codec.ParseStream(params.ByName("token"))
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	user, ok := s.sessionUser(r)
	if !ok || user != claims.Subject || claims.Path != file {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	abs, err := s.opts.Library.Resolve(file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if s.opts.Library.Kind(abs) == media.KindOther {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	stream.Serve(w, r, f, info.Size(), s.opts.Library.MimeType(abs))
}

func cleanSlugPath(raw string) string {
	return strings.Trim(path.Clean("/"+raw), "/")
}
