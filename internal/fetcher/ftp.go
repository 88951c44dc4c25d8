// Package fetcher pulls the monthly ERP CSV extracts from the finance
// team's FTP drop into the raw data directory, as the alternative to
// generating synthetic datasets locally.
package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boardpack/internal/config"
	"github.com/sells-group/boardpack/internal/resilience"
)

// FTPFetcher downloads dataset files over FTP.
type FTPFetcher struct {
	timeout time.Duration
	retry   resilience.RetryConfig
}

// NewFTPFetcher creates an FTPFetcher. timeout covers dial and transfer
// setup; zero means 30s.
func NewFTPFetcher(timeout time.Duration) *FTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("ftp", "download")
	return &FTPFetcher{timeout: timeout, retry: retry}
}

// datasetNames lists the remote extract files, in download order.
var datasetNames = []string{"financials.csv", "pipeline.csv", "headcount.csv", "customers.csv"}

// FetchDatasets downloads the four CSV extracts from cfg.Fetch.BaseURL
// into their configured local paths.
func FetchDatasets(ctx context.Context, cfg *config.Config) error {
	if cfg.Fetch.BaseURL == "" {
		return eris.New("fetcher: fetch.base_url not configured")
	}
	f := NewFTPFetcher(time.Duration(cfg.Fetch.TimeoutSecs) * time.Second)

	locals := map[string]string{
		"financials.csv": cfg.Paths.FinancialsFile,
		"pipeline.csv":   cfg.Paths.PipelineFile,
		"headcount.csv":  cfg.Paths.HeadcountFile,
		"customers.csv":  cfg.Paths.CustomersFile,
	}

	base := strings.TrimRight(cfg.Fetch.BaseURL, "/")
	for _, name := range datasetNames {
		local := locals[name]
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return eris.Wrapf(err, "fetcher: create dir for %s", local)
		}
		n, err := f.DownloadToFile(ctx, base+"/"+name, local)
		if err != nil {
			return eris.Wrapf(err, "fetcher: download %s", name)
		}
		zap.L().Info("dataset fetched",
			zap.String("dataset", name),
			zap.String("path", local),
			zap.Int64("bytes", n),
		)
	}
	return nil
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("empty path in ftp url")
	}

	return host, path, nil
}

// ftpConnReader ties the FTP response to its connection so closing the
// reader also disconnects.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

// Download connects to the FTP server and retrieves the file. The caller
// must close the returned ReadCloser to release the connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "ftp dial"), 0)
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

// DownloadToFile downloads the FTP URL to a local file with retries on
// transient failures. Returns bytes written.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, ftpURL string, path string) (int64, error) {
	return resilience.DoVal(ctx, f.retry, func(ctx context.Context) (int64, error) {
		rc, err := f.Download(ctx, ftpURL)
		if err != nil {
			return 0, err
		}
		defer rc.Close()

		file, err := os.Create(path)
		if err != nil {
			return 0, eris.Wrap(err, "create file")
		}
		defer file.Close()

		n, err := io.Copy(file, rc)
		if err != nil {
			return n, eris.Wrap(err, "write file")
		}
		return n, nil
	})
}
