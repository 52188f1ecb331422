package metrics

import (
	"expvar"

	"github.com/betbot/goautotrader/autotrader/client"
)

var (
	// 客户端调用
	Calls        = expvar.NewInt("autotrader_calls")
	CallFailures = expvar.NewMap("autotrader_call_failures") // 按失败分类
	Retries      = expvar.NewInt("autotrader_retries")

	// 假服务
	FakeRequests = expvar.NewMap("fakeserver_requests") // 按路径
	FakeFaults   = expvar.NewMap("fakeserver_faults")   // 按故障类型
)

// CallObserver 把调用结果累加到 expvar
type CallObserver struct{}

var _ client.Observer = CallObserver{}

// ObserveCall 实现 client.Observer
func (CallObserver) ObserveCall(e client.CallEvent) {
	Calls.Add(1)
	if e.Attempts > 1 {
		Retries.Add(int64(e.Attempts - 1))
	}
	if !e.OK {
		CallFailures.Add(e.Kind.String(), 1)
	}
}

// Fanout 把同一事件依次交给多个观察者，nil 会被跳过
type Fanout []client.Observer

// ObserveCall 实现 client.Observer
func (f Fanout) ObserveCall(e client.CallEvent) {
	for _, o := range f {
		if o != nil {
			o.ObserveCall(e)
		}
	}
}
