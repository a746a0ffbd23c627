package purity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

const accountSource = `using System;

public class Account
{
    static int total;
    int balance;
    readonly string id;

    public Account(string id) { this.id = id; }

    public int Balance() => balance;
    public string Id() => id;
    public void Deposit(int amount) => balance += amount;
    public static void Record(int amount) => total += amount;
    public static void Reset(Account other) => other.balance = 0;
    public static int Twice(int x) { var y = x; y += x; return y; }
}
`

func loadAccount(t *testing.T) *model.Symbol {
	t.Helper()
	comp, warnings := csharp.Load([]csharp.SourceFile{{Path: "Account.cs", Content: []byte(accountSource)}}, nil)
	require.Empty(t, warnings)
	account := comp.LookupType("Account")
	require.NotNil(t, account)
	return account
}

func newEngine() *Engine {
	return NewEngine(knownsymbols.NewBuilder().AddDefaults().Build())
}

func TestClassify_StrictnessLevels(t *testing.T) {
	account := loadAccount(t)

	tests := []struct {
		method string
		level  types.Strictness
		want   types.ImpurityKind // ImpurityNone means pure
	}{
		{"Id", types.Pure, types.ImpurityNone},
		{"Twice", types.Pure, types.ImpurityNone},
		{"Balance", types.Pure, types.ImpurityReceiverRead},
		{"Balance", types.PureExceptReadLocally, types.ImpurityNone},
		{"Deposit", types.Pure, types.ImpurityReceiverWrite},
		{"Deposit", types.PureExceptReadLocally, types.ImpurityReceiverWrite},
		{"Deposit", types.PureExceptLocally, types.ImpurityNone},
		{"Record", types.PureExceptLocally, types.ImpurityStaticWrite},
		{"Reset", types.PureExceptLocally, types.ImpurityForeignWrite},
	}
	for _, tt := range tests {
		t.Run(tt.method+"/"+tt.level.String(), func(t *testing.T) {
			m := account.LookupMethod(tt.method, -1)
			require.NotNil(t, m)

			got := Collect(newEngine().Classify(UnitFor(m, tt.level), nil))
			if tt.want == types.ImpurityNone {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1, "compound assignment is one finding")
			assert.Equal(t, tt.want, got[0].Kind)
			assert.Equal(t, "Account.cs", got[0].Location.File)
		})
	}
}

func TestUnitFor_ReceiverModes(t *testing.T) {
	account := loadAccount(t)

	assert.Equal(t, types.ReceiverOwn, UnitFor(account.LookupMethod("Balance", 0), types.Pure).Receiver)
	assert.Equal(t, types.ReceiverStatic, UnitFor(account.LookupMethod("Record", 1), types.Pure).Receiver)

	ctor := account.LookupConstructor(1)
	require.NotNil(t, ctor)
	u := UnitFor(ctor, types.Pure)
	assert.Equal(t, types.ReceiverFresh, u.Receiver)
	assert.Equal(t, types.CombinationInstanceAndStatic, u.Combination)
	assert.True(t, newEngine().IsPure(u), "a constructor may assign its own readonly fields")
}

func TestClassify_EarlyStop(t *testing.T) {
	account := loadAccount(t)
	e := newEngine()
	deposit := UnitFor(account.LookupMethod("Deposit", 1), types.Pure)

	n := 0
	for range e.Classify(deposit, nil) {
		n++
		break
	}
	assert.Equal(t, 1, n)
	assert.False(t, e.IsPure(deposit))
	assert.True(t, e.IsPure(Unit{Symbol: deposit.Symbol}), "a unit without a body has nothing to report")
}

func TestCollect_DedupsAndSorts(t *testing.T) {
	late := types.NewImpurity(types.Location{File: "A.cs", Offset: 20, EndOffset: 25}, types.ImpurityStaticRead, "reads x")
	early := types.NewImpurity(types.Location{File: "A.cs", Offset: 5, EndOffset: 9}, types.ImpurityStaticWrite, "writes x")

	seq := func(yield func(types.Impurity) bool) {
		for _, imp := range []types.Impurity{late, early, late} {
			if !yield(imp) {
				return
			}
		}
	}
	assert.Equal(t, []types.Impurity{early, late}, Collect(seq))
}

func TestParsePureLambda(t *testing.T) {
	tests := []struct {
		in      string
		want    PureLambda
		wantErr bool
	}{
		{"Demo.Pipeline.Map:1", PureLambda{Type: "Demo.Pipeline", Method: "Map", Arg: 1}, false},
		{" Demo.Pipeline.Map ", PureLambda{Type: "Demo.Pipeline", Method: "Map"}, false},
		{"Map:0", PureLambda{}, true},
		{"Demo.Pipeline.:0", PureLambda{}, true},
		{"Demo.Pipeline.Map:-1", PureLambda{}, true},
		{"Demo.Pipeline.Map:x", PureLambda{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePureLambda(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "Demo.Pipeline.Map:2", PureLambda{Type: "Demo.Pipeline", Method: "Map", Arg: 2}.String())
}
