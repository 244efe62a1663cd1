package scheduler

import (
	"context"
	"reflect"

	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/service/dao"
	"go.uber.org/mock/gomock"
)

// mockRecords is a gomock backed dao.Service for process records.
type mockRecords struct {
	ctrl     *gomock.Controller
	recorder *mockRecordsRecorder
}

type mockRecordsRecorder struct {
	mock *mockRecords
}

func newMockRecords(ctrl *gomock.Controller) *mockRecords {
	ret := &mockRecords{ctrl: ctrl}
	ret.recorder = &mockRecordsRecorder{mock: ret}
	return ret
}

func (m *mockRecords) EXPECT() *mockRecordsRecorder {
	return m.recorder
}

func (m *mockRecords) Save(ctx context.Context, record *process.Record) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Save", ctx, record)
	err, _ := ret[0].(error)
	return err
}

func (r *mockRecordsRecorder) Save(ctx, record any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Save", reflect.TypeOf((*mockRecords)(nil).Save), ctx, record)
}

func (m *mockRecords) Load(ctx context.Context, id int) (*process.Record, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Load", ctx, id)
	record, _ := ret[0].(*process.Record)
	err, _ := ret[1].(error)
	return record, err
}

func (r *mockRecordsRecorder) Load(ctx, id any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Load", reflect.TypeOf((*mockRecords)(nil).Load), ctx, id)
}

func (m *mockRecords) Delete(ctx context.Context, id int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, id)
	err, _ := ret[0].(error)
	return err
}

func (r *mockRecordsRecorder) Delete(ctx, id any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "Delete", reflect.TypeOf((*mockRecords)(nil).Delete), ctx, id)
}

func (m *mockRecords) List(ctx context.Context, parameters ...*dao.Parameter) ([]*process.Record, error) {
	m.ctrl.T.Helper()
	args := []any{ctx}
	for _, p := range parameters {
		args = append(args, p)
	}
	ret := m.ctrl.Call(m, "List", args...)
	records, _ := ret[0].([]*process.Record)
	err, _ := ret[1].(error)
	return records, err
}

func (r *mockRecordsRecorder) List(ctx any, parameters ...any) *gomock.Call {
	r.mock.ctrl.T.Helper()
	args := append([]any{ctx}, parameters...)
	return r.mock.ctrl.RecordCallWithMethodType(r.mock, "List", reflect.TypeOf((*mockRecords)(nil).List), args...)
}

var _ dao.Service[int, process.Record] = (*mockRecords)(nil)
