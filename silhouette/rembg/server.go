package rembg

import (
	"bytes"
	"context"
	"image"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chaos-io/silhouette/util"
	nhttp "github.com/chaos-io/silhouette/util/http"
)

const (
	DefaultMaxSide = 2048
	removePath     = "api/remove"
)

// Server calls a rembg HTTP server (`rembg s`).
type Server struct {
	baseURL string
	maxSide int
	cli     nhttp.IClient
}

type Option func(*Server)

// WithMaxSide bounds the longest side of the uploaded image.
func WithMaxSide(n int) Option {
	return func(s *Server) {
		s.maxSide = n
	}
}

func WithClient(cli nhttp.IClient) Option {
	return func(s *Server) {
		s.cli = cli
	}
}

func NewServer(baseURL string, opts ...Option) *Server {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	s := &Server{
		baseURL: baseURL,
		maxSide: DefaultMaxSide,
		cli:     nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/*
	curl -X POST "$BASE_URL/api/remove" -F "file=@my_image.png" -o cutout.png
*/
func (s *Server) Remove(ctx context.Context, data []byte) (*image.NRGBA, error) {
	src, err := util.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	size := src.Bounds().Size()

	upload := data
	if s.maxSide > 0 && max(size.X, size.Y) > s.maxSide {
		upload, err = encodePNG(resizeWithinMax(src, s.maxSide))
		if err != nil {
			return nil, err
		}
		util.Logger.Debug("downscaled upload", zap.Int("max_side", s.maxSide))
	}

	body, contentType, err := multipartBody(upload)
	if err != nil {
		return nil, err
	}

	var cutout []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: s.baseURL + removePath,
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   &cutout,
	}
	if err := s.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, errors.Wrap(ErrUnavailable, err.Error())
		}
		return nil, errors.Wrap(err, "remove background")
	}

	img, err := util.DecodeImage(cutout)
	if err != nil {
		return nil, errors.Wrap(err, "decode rembg response")
	}

	out := imaging.Clone(img)
	if out.Bounds().Size() != size {
		out = scaleTo(out, size)
	}
	return out, nil
}

func multipartBody(data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", errors.Wrap(err, "create form file")
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", errors.Wrap(err, "write form file")
	}
	if err := writer.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart writer")
	}
	return body, writer.FormDataContentType(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}
