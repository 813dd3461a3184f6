package app

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/id"
	"github.com/sitewrap/sitewrap/internal/shared/origin"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// OriginPermissions is one group of the permission editor
type OriginPermissions struct {
	Origin      string
	Host        string
	Permissions types.PerOriginPermissions
}

// OpenPermissions loads an app's permission store for editing. The primary
// origin is always present; materializing it writes the store.
func (o *Orchestrator) OpenPermissions(appID id.WebAppID) ([]OriginPermissions, error) {
	def, err := o.registry.Load(appID)
	if err != nil {
		o.presenter.ErrorDialog("Permissions unavailable", err)
		return nil, err
	}

	store, err := o.permissions.Load(appID)
	if err != nil {
		o.presenter.ErrorDialog("Permissions unavailable", err)
		return nil, err
	}

	if _, created := store.GetOrDefault(def.PrimaryOrigin); created {
		if err := o.permissions.Save(appID, store); err != nil {
			o.presenter.ErrorDialog("Permissions unavailable", err)
			return nil, err
		}
	}
	return permissionRows(store), nil
}

// SetPermission stores one decision
func (o *Orchestrator) SetPermission(appID id.WebAppID, originStr string, kind types.PermissionKind, state types.PermissionState) error {
	_, err := o.permissions.Update(appID, func(s *types.PermissionStore) {
		s.SetState(originStr, kind, state)
	})
	if err != nil {
		o.log.Error("Save permissions failed", zap.String("id", appID.String()), zap.Error(err))
		o.presenter.ErrorDialog("Save permissions failed", err)
		return err
	}
	o.log.Debug("Permission changed",
		zap.String("id", appID.String()),
		zap.String("origin", originStr),
		zap.String("kind", string(kind)),
		zap.String("state", string(state)))
	return nil
}

// AddOrigin adds an origin with default permissions and returns its
// serialization. Text without a scheme is read as https.
func (o *Orchestrator) AddOrigin(appID id.WebAppID, text string) (string, error) {
	originStr, err := origin.ParseOriginInput(text)
	if err != nil {
		o.presenter.FieldError(types.FieldOf(err), types.Message(err))
		return "", err
	}

	_, err = o.permissions.Update(appID, func(s *types.PermissionStore) {
		s.GetOrDefault(originStr)
	})
	if err != nil {
		o.presenter.ErrorDialog("Save permissions failed", err)
		return "", err
	}
	return originStr, nil
}

func permissionRows(store *types.PermissionStore) []OriginPermissions {
	origins := store.Origins()
	rows := make([]OriginPermissions, 0, len(origins))
	for _, o := range origins {
		p, _ := store.Lookup(o)
		host := o
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			host = u.Hostname()
		}
		rows = append(rows, OriginPermissions{Origin: o, Host: host, Permissions: p})
	}
	return rows
}
