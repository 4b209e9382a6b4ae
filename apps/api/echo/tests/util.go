package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/miradi/apps/api/echo"
	"github.com/trezcool/miradi/core"
	"github.com/trezcool/miradi/core/group"
	"github.com/trezcool/miradi/core/query"
	"github.com/trezcool/miradi/core/submission"
	"github.com/trezcool/miradi/core/topic"
	"github.com/trezcool/miradi/core/user"
	emailsvc "github.com/trezcool/miradi/services/email"
	logsvc "github.com/trezcool/miradi/services/logger"
	uploadsvc "github.com/trezcool/miradi/services/upload"
	dummydb "github.com/trezcool/miradi/storage/database/dummy"
)

var (
	usrRepo   user.Repository
	topicRepo topic.Repository
	groupRepo group.Repository
	subRepo   submission.Repository
	queryRepo query.Repository
	fileStore *uploadsvc.MemoryStore

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) Server {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	topicRepo = dummydb.NewTopicRepository(db)
	groupRepo = dummydb.NewGroupRepository(db)
	subRepo = dummydb.NewSubmissionRepository(db)
	queryRepo = dummydb.NewQueryRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), core.Conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock()
	fileStore = uploadsvc.NewMemoryStore()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	topicSvc := topic.NewService(topicRepo)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         logger,
			UserSvc:        usrSvc,
			TopicSvc:       topicSvc,
			GroupSvc:       group.NewService(groupRepo, topicSvc, usrSvc),
			SubmissionSvc:  submission.NewServiceMock(subRepo, groupRepo, usrSvc, fileStore, mailSvc),
			QuerySvc:       query.NewService(queryRepo, groupRepo),
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request with a single "file" part plus
// the given form fields.
func newUploadRequest(t *testing.T, method, path, token, filename string, content []byte, fields map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("part.Write(): %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Writer.Close(): %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
