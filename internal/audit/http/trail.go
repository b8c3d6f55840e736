// Package http provides the audit recorder middleware and the audit log review handler.
package http

import (
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
)

// Keys of the per-request side channel read by the recorder after the handler returns.
const (
	targetIDKey       = "audit.target_id"
	actorKey          = "audit.actor"
	submittedEmailKey = "audit.submitted_email"
)

// SetTargetID records the id of the entity the handler created or changed.
func SetTargetID(c *gin.Context, id string) {
	c.Set(targetIDKey, id)
}

// SetActor names the actor of a request that has no authenticated principal yet, such as
// a successful login.
func SetActor(c *gin.Context, actor auditDomain.Actor) {
	c.Set(actorKey, actor)
}

// SetSubmittedEmail records the email an authentication request was made for. It is only
// ever persisted encrypted.
func SetSubmittedEmail(c *gin.Context, email string) {
	c.Set(submittedEmailKey, email)
}

func targetID(c *gin.Context) *string {
	id := c.GetString(targetIDKey)
	if id == "" {
		return nil
	}
	return &id
}

func sideChannelActor(c *gin.Context) (auditDomain.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return auditDomain.Actor{}, false
	}
	actor, ok := value.(auditDomain.Actor)
	return actor, ok
}
