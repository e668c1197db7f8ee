// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// ハンドラーおよびミドルウェアから利用する。
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordHTTPDuration(duration time.Duration)
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordItemMutation(operation string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus    *prometheus.CounterVec
	httpDuration  prometheus.Histogram
	loginSuccess  prometheus.Counter
	loginFailure  *prometheus.CounterVec
	itemMutations *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinodex_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dinodex_http_duration_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dinodex_login_success_total",
			Help: "OAuthログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinodex_login_failure_total",
			Help: "OAuthログイン失敗の合計数（原因別）",
		}, []string{"reason"}),
		itemMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dinodex_item_mutations_total",
			Help: "アイテム変更操作の合計数（操作別）",
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.httpDuration,
		c.loginSuccess,
		c.loginFailure,
		c.itemMutations,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPDuration はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordHTTPDuration(duration time.Duration) {
	c.httpDuration.Observe(duration.Seconds())
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を原因別に記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFailure.WithLabelValues(reason).Inc()
}

// RecordItemMutation はアイテム変更操作を操作別に記録する。
func (c *Collector) RecordItemMutation(operation string) {
	c.itemMutations.WithLabelValues(operation).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)

// NopRecorder は何も記録しないRecorder。テストおよびメトリクス無効時に使用する。
type NopRecorder struct{}

func (NopRecorder) RecordHTTPStatus(int)             {}
func (NopRecorder) RecordHTTPDuration(time.Duration) {}
func (NopRecorder) RecordLoginSuccess()              {}
func (NopRecorder) RecordLoginFailure(string)        {}
func (NopRecorder) RecordItemMutation(string)        {}

var _ Recorder = NopRecorder{}
