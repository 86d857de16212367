package firmware

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sampottinger/ljswitchboard/internal/util/errp"
	"github.com/sampottinger/ljswitchboard/internal/util/logging"
)

// Load fetches an image from source (a local filesystem path or an
// http(s):// URL), parses its header, and derives the declared firmware
// version from the filename. It does not open a device connection;
// callers populate Bundle.Device/Serial/ConnectionType separately before
// running the rest of the pipeline.
func Load(ctx context.Context, source string, opts Options) (*Bundle, error) {
	log := logging.WithGroup("image").WithField("source", source)

	raw, err := fetch(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerSize {
		return nil, ErrInvalidImage
	}

	header, err := parseHeader(raw[:headerSize])
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: parse header")
	}

	declared, err := versionFromFilename(source)
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: derive version from filename")
	}

	if math.Abs(declared-header.ContainedVersion) > 1e-3 {
		log.WithField("declared", declared).WithField("contained", header.ContainedVersion).
			Warn("filename version disagrees with header version")
		return nil, ErrVersionDisagreement
	}

	return &Bundle{
		Image:           raw[headerSize:],
		Header:          header,
		FirmwareVersion: declared,
	}, nil
}

// versionFromFilename extracts the declared firmware version from a
// filename of the form "<name>_<version*10000>_<rest>.bin": the segment
// between the first and second underscore, divided by 10000.
func versionFromFilename(source string) (float64, error) {
	name := filepath.Base(source)
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0, errp.Newf("filename %q does not contain a version segment", name)
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, errp.WithMessage(err, "filename version segment is not an integer")
	}
	return truncate4(float64(n) / 10000), nil
}

// fetch reads the full contents of source, dispatching to HTTP(S) or the
// local filesystem depending on its scheme.
func fetch(ctx context.Context, source string, opts Options) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetchHTTP(ctx, source, opts)
	}
	return fetchLocal(source, opts)
}

func fetchHTTP(ctx context.Context, source string, opts Options) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: build request")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errp.WithStack(ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errp.WithMessage(ErrFetch, fmt.Sprintf("fetch %s: unexpected status %s", source, resp.Status))
	}

	limited := io.LimitReader(resp.Body, opts.MaxImageSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: read response body")
	}
	if int64(len(data)) > opts.MaxImageSize {
		return nil, errp.Newf("firmware: image exceeds MaxImageSize (%d bytes)", opts.MaxImageSize)
	}
	return data, nil
}

func fetchLocal(source string, opts Options) ([]byte, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: open local image")
	}
	defer f.Close()

	limited := io.LimitReader(f, opts.MaxImageSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errp.WithMessage(err, "firmware: read local image")
	}
	if int64(len(data)) > opts.MaxImageSize {
		return nil, errp.Newf("firmware: image exceeds MaxImageSize (%d bytes)", opts.MaxImageSize)
	}
	return data, nil
}
