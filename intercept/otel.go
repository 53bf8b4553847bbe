/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package intercept

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OtelInterceptor opens a span per statement execution, named after the
// statement id, and closes it in After, recording the driver name, query
// and rows-affected as span attributes.
type OtelInterceptor struct {
	Tracer     trace.Tracer
	DriverName string
}

// NewOtelInterceptor returns an interceptor using the global tracer
// provider under the given instrumentation name.
func NewOtelInterceptor(instrumentationName, driverName string) *OtelInterceptor {
	return &OtelInterceptor{Tracer: otel.Tracer(instrumentationName), DriverName: driverName}
}

const otelSpanLocalKey = "intercept.otel.span"

// Before starts a span named after the statement id, stashed in the
// task's scratch space so After can close it.
func (o *OtelInterceptor) Before(ctx context.Context, task *Task) (bool, error) {
	_, span := o.Tracer.Start(ctx, "dynsql.statement/"+task.StatementID,
		trace.WithAttributes(
			attribute.String("db.system", o.DriverName),
			attribute.String("db.statement", task.Query),
		))
	task.SetLocal(otelSpanLocalKey, span)
	return true, nil
}

// After ends the span, recording the outcome.
func (o *OtelInterceptor) After(_ context.Context, task *Task, result *Result) error {
	v, ok := task.Local(otelSpanLocalKey)
	if !ok {
		return nil
	}
	span, ok := v.(trace.Span)
	if !ok {
		return nil
	}
	defer span.End()
	if result != nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", result.RowsAffected))
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
			return nil
		}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
