package authorize

import (
	"errors"
	"io/fs"
	"os"

	"github.com/casbin/casbin/v2/model"
)

// DefaultModel is the RBAC-with-domains model the policies are written for.
// A role may also be enforced directly as the request subject.
const DefaultModel = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (g(r.sub, p.sub, r.dom) || g(r.sub, p.sub, "sys") || r.sub == p.sub) && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act || p.act == "manage")
`

// LoadModel reads the model file at path, falling back to DefaultModel when
// path is empty or the file does not exist.
func LoadModel(path string) (model.Model, error) {
	if path != "" {
		text, err := os.ReadFile(path)
		if err == nil {
			return model.NewModelFromString(string(text))
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return model.NewModelFromString(DefaultModel)
}
