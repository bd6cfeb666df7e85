package pinning

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"
)

func mustCID(t *testing.T, data string) string {
	t.Helper()
	h, err := ContentID([]byte(data))
	require.NoError(t, err)
	return h
}

func TestRegistry(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)

	_, err = New("ftp", map[string]any{})
	require.ErrorContains(t, err, "unsupported pinning type")

	_, err = New("pinata", nil)
	require.ErrorContains(t, err, "config is required")

	_, err = New("Pinata", map[string]any{"api_url": "http://x"})
	require.ErrorContains(t, err, "jwt is required")

	p, err := New(" PINATA ", map[string]any{"jwt": "j", "timeout": "5s"})
	require.NoError(t, err)
	require.IsType(t, &PinataPinner{}, p)

	_, err = New("pinata", map[string]any{"jwt": "j", "timeout": "soon"})
	require.Error(t, err)
}

func TestValidateHash(t *testing.T) {
	require.NoError(t, ValidateHash(mustCID(t, "hello")))
	require.NoError(t, ValidateHash("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	require.ErrorIs(t, ValidateHash("not-a-cid"), ErrInvalidHash)
	require.ErrorIs(t, ValidateHash(""), ErrInvalidHash)
}

func TestContentID_Stable(t *testing.T) {
	a := mustCID(t, "same bytes")
	b := mustCID(t, "same bytes")
	require.Equal(t, a, b)
	require.NotEqual(t, a, mustCID(t, "other bytes"))

	c, err := cid.Decode(a)
	require.NoError(t, err)
	require.Equal(t, uint64(cid.Raw), c.Type())
	require.Equal(t, uint64(1), c.Version())
}

func TestPinata_Pin(t *testing.T) {
	var gotAuth, gotName, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotContent = hdr.Filename, string(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"IpfsHash":"QmHash","PinSize":5,"Timestamp":"2024-05-01T10:00:00Z"}`)
	}))
	defer srv.Close()

	p := NewPinataPinner(srv.URL+"/", "secret-jwt", srv.Client())
	res, err := p.Pin(context.Background(), "note.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, "QmHash", res.Hash)
	require.Equal(t, int64(5), res.Size)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), res.Timestamp)
	require.Equal(t, "Bearer secret-jwt", gotAuth)
	require.Equal(t, "note.txt", gotName)
	require.Equal(t, "hello", gotContent)
}

func TestPinata_PinFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusForbidden)
		}, "status: 403"},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = io.WriteString(w, "{")
		}, "decode pin response"},
		{"no hash", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = io.WriteString(w, `{"PinSize":1}`)
		}, "no IpfsHash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewPinataPinner(srv.URL, "j", srv.Client())
			_, err := p.Pin(context.Background(), "a", strings.NewReader("x"))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestPinata_Unpin(t *testing.T) {
	hash := mustCID(t, "pinned")
	var gotPath, gotMethod string
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(status)
	}))
	defer srv.Close()

	p := NewPinataPinner(srv.URL, "j", srv.Client())
	require.NoError(t, p.Unpin(context.Background(), hash))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/pinning/unpin/"+hash, gotPath)

	status = http.StatusNotFound
	require.ErrorContains(t, p.Unpin(context.Background(), hash), "failed to unpin: 404")

	gotPath = ""
	require.ErrorIs(t, p.Unpin(context.Background(), "../../admin"), ErrInvalidHash)
	require.Empty(t, gotPath)
}

// ---- S3 ----

type fakeS3 struct {
	PutErr    error
	DeleteErr error

	LastPut    *s3.PutObjectInput
	LastBody   string
	LastDelete *s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.LastPut = in
	b, _ := io.ReadAll(in.Body)
	f.LastBody = string(b)
	return &s3.PutObjectOutput{}, f.PutErr
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.LastDelete = in
	return &s3.DeleteObjectOutput{}, f.DeleteErr
}

func TestS3Pinner_PinAndUnpin(t *testing.T) {
	origNow := now
	t.Cleanup(func() { now = origNow })
	fixed := time.Unix(1_700_000_000, 0)
	now = func() time.Time { return fixed }

	fake := &fakeS3{}
	p := newS3PinnerWithClient(fake, S3Config{Bucket: "pins", Prefix: "/ipfs/"})

	res, err := p.Pin(context.Background(), "a.txt", strings.NewReader("content"))
	require.NoError(t, err)
	require.Equal(t, mustCID(t, "content"), res.Hash)
	require.Equal(t, int64(7), res.Size)
	require.Equal(t, fixed, res.Timestamp)

	require.Equal(t, "pins", aws.ToString(fake.LastPut.Bucket))
	require.Equal(t, "ipfs/"+res.Hash, aws.ToString(fake.LastPut.Key))
	require.Equal(t, "content", fake.LastBody)
	require.Equal(t, "a.txt", fake.LastPut.Metadata["filename"])

	require.NoError(t, p.Unpin(context.Background(), res.Hash))
	require.Equal(t, "ipfs/"+res.Hash, aws.ToString(fake.LastDelete.Key))

	require.ErrorIs(t, p.Unpin(context.Background(), "not-a-cid"), ErrInvalidHash)
}

func TestS3Pinner_Errors(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeS3{PutErr: boom, DeleteErr: boom}
	p := newS3PinnerWithClient(fake, S3Config{Bucket: "pins"})

	_, err := p.Pin(context.Background(), "a", strings.NewReader("x"))
	require.ErrorIs(t, err, boom)

	err = p.Unpin(context.Background(), mustCID(t, "x"))
	require.ErrorIs(t, err, boom)
	require.Equal(t, mustCID(t, "x"), aws.ToString(fake.LastDelete.Key))
}

func TestNewS3Pinner_Wiring(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		require.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}
	var endpoint string
	var pathStyle bool
	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		endpoint = aws.ToString(o.BaseEndpoint)
		pathStyle = o.UsePathStyle
		return fake
	}

	p, err := NewS3Pinner(context.Background(), S3Config{
		Endpoint:  "http://127.0.0.1:9000",
		Region:    "eu-central-1",
		Bucket:    "pins",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	require.Same(t, fake, p.client)
	require.Equal(t, "http://127.0.0.1:9000", endpoint)
	require.True(t, pathStyle)

	_, err = NewS3Pinner(context.Background(), S3Config{})
	require.ErrorContains(t, err, "bucket is required")

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = New("s3", map[string]any{"bucket": "pins"})
	require.ErrorContains(t, err, "load aws config")
}

func TestIPFSURL(t *testing.T) {
	require.Equal(t, "ipfs://QmX", IPFSURL("QmX"))
}
