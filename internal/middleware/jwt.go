package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/response"
)

// ContextSubjectKey is the gin context key storing the token subject.
const ContextSubjectKey = "tokenSubject"

type tokenValidator interface {
	Validate(token string) (*jwt.RegisteredClaims, error)
}

// JWT requires a valid bearer token and stores its subject on the context.
func JWT(tokens tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}

// SubjectMatchesParam restricts a route to tokens whose subject equals the named path
// parameter. Requests without a subject on the context pass, so it is inert when JWT is off.
func SubjectMatchesParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(ContextSubjectKey)
		if subject != "" && subject != c.Param(param) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token does not grant access to this enrolment"))
			c.Abort()
			return
		}
		c.Next()
	}
}
