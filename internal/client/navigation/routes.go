package navigation

import "strings"

// Meta are the guard flags of a route.
type Meta struct {
	// RequiresAuth routes need a valid session.
	RequiresAuth bool
	// Guest routes are pointless with a session (login, signup).
	Guest bool
}

type Route struct {
	Name string
	Path string
	Meta Meta
}

// Resolve fills the route's ":param" segments with args in order. Missing
// args leave the placeholder in place.
func (r Route) Resolve(args ...string) Route {
	if len(args) == 0 {
		return r
	}
	segs := strings.Split(r.Path, "/")
	i := 0
	for n, s := range segs {
		if i >= len(args) {
			break
		}
		if strings.HasPrefix(s, ":") {
			segs[n] = args[i]
			i++
		}
	}
	r.Path = strings.Join(segs, "/")
	return r
}

// Route names.
const (
	Home       = "Home"
	Login      = "Login"
	Signup     = "Signup"
	OTP        = "OTP"
	Upload     = "Upload"
	DeleteFile = "DeleteFile"
	Share      = "Share"
	Links      = "Links"
	Unshare    = "Unshare"
	Profile    = "Profile"
	Logout     = "Logout"
	SharedFile = "SharedFileView"
	Help       = "Help"
)

var auth = Meta{RequiresAuth: true}
var guest = Meta{Guest: true}

// Routes are the terminal client's routes, keyed by name.
var Routes = map[string]Route{
	Home:       {Name: Home, Path: "/", Meta: auth},
	Login:      {Name: Login, Path: "/login", Meta: guest},
	Signup:     {Name: Signup, Path: "/signup", Meta: guest},
	OTP:        {Name: OTP, Path: "/otp/:id", Meta: guest},
	Upload:     {Name: Upload, Path: "/upload", Meta: auth},
	DeleteFile: {Name: DeleteFile, Path: "/files/:id/delete", Meta: auth},
	Share:      {Name: Share, Path: "/files/:id/share", Meta: auth},
	Links:      {Name: Links, Path: "/links", Meta: auth},
	Unshare:    {Name: Unshare, Path: "/links/:shareId/delete", Meta: auth},
	Profile:    {Name: Profile, Path: "/me", Meta: auth},
	Logout:     {Name: Logout, Path: "/logout", Meta: auth},
	SharedFile: {Name: SharedFile, Path: "/shared/:shareId"},
	Help:       {Name: Help, Path: "/help"},
}

// ByPath finds a route by its literal path, e.g. a redirect target.
func ByPath(path string) (Route, bool) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
