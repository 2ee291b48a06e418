package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	errorCounts sync.Map // map[string]*int64, keyed by component
	warnCounts  sync.Map

	signalsReceived  int64
	signalsProcessed int64
	ordersSubmitted  int64
	ordersFilled     int64
	ordersCancelled  int64
	refreshErrors    int64
)

func recordWarn(component string) {
	v, _ := warnCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

func recordError(component string) {
	v, _ := errorCounts.LoadOrStore(component, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// IncrementSignalReceived counts a signal popped from the stream.
func IncrementSignalReceived() { atomic.AddInt64(&signalsReceived, 1) }

// IncrementSignalProcessed counts a signal fully handled by a worker.
func IncrementSignalProcessed() { atomic.AddInt64(&signalsProcessed, 1) }

// IncrementOrderSubmitted counts an accepted order submission.
func IncrementOrderSubmitted() { atomic.AddInt64(&ordersSubmitted, 1) }

// IncrementOrderFilled counts an order reaching the filled state.
func IncrementOrderFilled() { atomic.AddInt64(&ordersFilled, 1) }

// IncrementOrderCancelled counts an order reaching the cancelled state.
func IncrementOrderCancelled() { atomic.AddInt64(&ordersCancelled, 1) }

// IncrementRefreshError counts a failed shared-state refresh.
func IncrementRefreshError() { atomic.AddInt64(&refreshErrors, 1) }

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and pipeline statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	warnData := map[string]int64{}
	warnCounts.Range(func(k, v any) bool {
		warnData[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	errorData := map[string]int64{}
	errorCounts.Range(func(k, v any) bool {
		errorData[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})

	fields := Fields{
		"signals_received":  atomic.LoadInt64(&signalsReceived),
		"signals_processed": atomic.LoadInt64(&signalsProcessed),
		"orders_submitted":  atomic.LoadInt64(&ordersSubmitted),
		"orders_filled":     atomic.LoadInt64(&ordersFilled),
		"orders_cancelled":  atomic.LoadInt64(&ordersCancelled),
		"refresh_errors":    atomic.LoadInt64(&refreshErrors),
		"warns":             warnData,
		"errors":            errorData,
		"goroutines":        runtime.NumGoroutine(),
		"cpu_percent":       cpuPct,
		"memory_mb":         int64(memStats.Used) / 1024 / 1024,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	data := []cwtypes.MetricDatum{
		{MetricName: aws.String("DummyBot-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		{MetricName: aws.String("DummyBot-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		{MetricName: aws.String("DummyBot-SignalsReceived"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&signalsReceived)))},
		{MetricName: aws.String("DummyBot-SignalsProcessed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&signalsProcessed)))},
		{MetricName: aws.String("DummyBot-OrdersSubmitted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&ordersSubmitted)))},
		{MetricName: aws.String("DummyBot-OrdersFilled"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&ordersFilled)))},
		{MetricName: aws.String("DummyBot-OrdersCancelled"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&ordersCancelled)))},
		{MetricName: aws.String("DummyBot-RefreshErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(atomic.LoadInt64(&refreshErrors)))},
	}

	publishMetrics(ctx, data)
}
