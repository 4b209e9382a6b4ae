package logsvc

import (
	"io/ioutil"
	"log"
	"testing"

	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/user"
)

func Test_RollbarLogger_prepare(t *testing.T) {
	logger := NewRollbarLogger(log.New(ioutil.Discard, "", 0), core.Conf)
	logger.Enable(false)

	usr := user.User{ID: "idfella", Username: "stud01", Email: "s1@test.cd", Role: user.RoleStudent}

	args := logger.prepare("oops", []interface{}{usr, map[string]string{"ctx": "extra"}})
	if args[0] != "oops" {
		t.Errorf("args[0] = %v; want the message", args[0])
	}

	var roleSeen bool
	for _, arg := range args[1:] {
		if m, ok := arg.(map[string]interface{}); ok && m["role"] == user.RoleStudent {
			roleSeen = true
		}
		if _, ok := arg.(user.User); ok {
			t.Error("raw user left in the payload")
		}
	}
	if !roleSeen {
		t.Error("role missing from the payload")
	}
}
