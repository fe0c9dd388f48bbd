package logic

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gravitl/usersync/models"
	"github.com/gravitl/usersync/servercfg"
)

const (
	Unauthorized_Msg = "unauthorized"
	Unauthorized_Err = models.Error(Unauthorized_Msg)
)

// SecurityCheck - only lets requests bearing the master key through
func SecurityCheck(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checkBearer(r.Header.Get("Authorization")); err != nil {
			ReturnErrorResponse(w, r, FormatError(err, "unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	}
}

func checkBearer(header string) error {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return Unauthorized_Err
	}
	if !authenticateMaster(token) {
		return Unauthorized_Err
	}
	return nil
}

func authenticateMaster(tokenString string) bool {
	masterKey := servercfg.GetMasterKey()
	if masterKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(tokenString), []byte(masterKey)) == 1
}
