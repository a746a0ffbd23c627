package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/purity/internal/diagnostics"
	"github.com/standardbeagle/purity/internal/frontend/csharp"
	"github.com/standardbeagle/purity/internal/purity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type runOptions struct {
	refs    bool
	lambdas []string
}

func analyze(t *testing.T, code string, o runOptions) *Result {
	t.Helper()
	in := Input{
		Sources: []csharp.SourceFile{{Path: "Test.cs", Content: []byte(code)}},
		Known:   KnownSymbols{Defaults: true},
		Options: Options{Workers: 2},
	}
	if o.refs {
		content, err := os.ReadFile(filepath.Join("testdata", "compiledlib.cs"))
		require.NoError(t, err)
		in.References = []csharp.SourceFile{{Path: "compiledlib.cs", Content: content}}
	}
	if len(o.lambdas) > 0 {
		l, err := ParsePureLambdas(o.lambdas)
		require.NoError(t, err)
		in.Options.PureLambdas = l
	}
	res, err := Analyze(context.Background(), in)
	require.NoError(t, err)
	return res
}

func byID(res *Result, id diagnostics.ID) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, d := range res.Diagnostics {
		if d.ID == id {
			out = append(out, d)
		}
	}
	return out
}

func TestPurityCases(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		refs   bool
		impure bool
	}{
		{
			name: "assumed pure method is trusted",
			code: `
public static class Greeter
{
    [IsPure]
    public static string Greet() => Counter();

    private static int calls;

    [AssumeIsPure]
    private static string Counter() => calls.ToString();
}`,
		},
		{
			name: "assumed pure type is trusted",
			code: `
public static class Greeter
{
    [IsPure]
    public static string Greet() => Tally.Next();
}

[AssumeIsPure]
public static class Tally
{
    private static int calls;
    public static string Next() => calls.ToString();
}`,
		},
		{
			name: "assumed pure class passed as interface",
			code: `
public interface IFormatter
{
    string Format(int input);
}

[AssumeIsPure]
public class CountingFormatter : IFormatter
{
    int calls = 0;
    public string Format(int input)
    {
        calls++;
        return input.ToString();
    }
}

public static class Report
{
    [IsPure]
    public static string Render() => Apply(new CountingFormatter());

    [IsPure]
    public static string Apply(IFormatter formatter) => formatter.Format(1);
}`,
		},
		{
			name: "pure type requires static methods to be pure",
			code: `
[IsPure]
public class Settings
{
    static int level = 1;
    public static string Level() => level.ToString();
}`,
			impure: true,
		},
		{
			name: "pure type requires instance methods to be pure",
			code: `
[IsPure]
public class Settings
{
    int level = 1;
    public string Level() => level.ToString();
}`,
			impure: true,
		},
		{
			name: "pure type requires static properties to be pure",
			code: `
[IsPure]
public class Settings
{
    static int hits;
    public static int Hits
    {
        get { return hits++; }
    }
}`,
			impure: true,
		},
		{
			name: "pure type requires instance properties to be pure",
			code: `
[IsPure]
public class Settings
{
    int hits;
    public int Hits
    {
        get { return hits++; }
    }
}`,
			impure: true,
		},
		{
			name: "pure type requires static constructor to be pure",
			code: `
[IsPure]
public class Settings
{
    static Settings() => Registry.Count = 1;
}

public static class Registry
{
    public static int Count;
}`,
			impure: true,
		},
		{
			name: "pure type requires instance constructor to be pure",
			code: `
[IsPure]
public class Settings
{
    public Settings() => Registry.Count = 1;
}

public static class Registry
{
    public static int Count;
}`,
			impure: true,
		},
		{
			name: "pure type with pure members",
			code: `
[IsPure]
public class Settings
{
    public int Level
    {
        get { return 1; }
    }

    public int Next(int a) => a + 1;
}`,
		},
		{
			name: "generic method with empty body",
			code: `
public class Item
{
}

public static class Store
{
    [IsPure]
    public static void Keep() => Put<Item>(new Item());

    public static void Put<T>(T item)
    {
    }
}`,
		},
		{
			name: "generic method calls impure ToString of the type argument",
			code: `
public class Item
{
    public static int renders = 0;
    public override string ToString()
    {
        renders++;
        return "";
    }
}

public static class Store
{
    [IsPure]
    public static void Keep() => Put<Item>(new Item());

    public static void Put<T>(T item)
    {
        var text = item.ToString();
    }
}`,
			impure: true,
		},
		{
			name: "generic method ignores impure ToString it never calls",
			code: `
public class Item
{
    public static int renders = 0;
    public override string ToString()
    {
        renders++;
        return "";
    }
}

public static class Store
{
    [IsPure]
    public static void Keep() => Put<Item>(new Item());

    public static void Put<T>(T item)
    {
    }
}`,
		},
		{
			name: "compiled generic method may use the type argument as object",
			code: `
using Acme.CompiledLib;

public class Item
{
    public static int renders = 0;
    public override string ToString()
    {
        renders++;
        return "";
    }
}

public static class Store
{
    [IsPure]
    public static string Show() => GenericHelpers.Describe<Item>(new Item());
}`,
			refs:   true,
			impure: true,
		},
		{
			name: "compiled generic method declares the type argument unused",
			code: `
using Acme.CompiledLib;

public class Item
{
    public static int renders = 0;
    public override string ToString()
    {
        renders++;
        return "";
    }
}

public static class Store
{
    [IsPure]
    public static string Show() => GenericHelpers.Wrap<Item>(new Item());
}`,
			refs: true,
		},
		{
			name: "type parameter forwarded to another generic method",
			code: `
public static class Render
{
    public static string Text<T>() => default(T).ToString();

    [IsPure]
    public static string Forward<T>() => Text<T>();
}`,
		},
		{
			name: "interface constrained call dispatches to impure class constraint",
			code: `
public interface IRunner
{
    void Run();
}

public class Runner : IRunner
{
    private static int runs;
    public void Run() => runs++;
}

public static class Jobs
{
    public static void Start<T>(T job) where T : IRunner => job.Run();

    [IsPure]
    public static void Launch<T>(T job) where T : Runner => Start(job);
}`,
			impure: true,
		},
		{
			name: "interface constrained call dispatches to pure class constraint",
			code: `
public interface IRunner
{
    void Run();
}

public class Runner : IRunner
{
    public void Run()
    {
    }
}

public static class Jobs
{
    public static void Start<T>(T job) where T : IRunner => job.Run();

    [IsPure]
    public static void Launch<T>(T job) where T : Runner => Start(job);
}`,
		},
		{
			name: "ToString through constraint reaches impure override",
			code: `
public interface ILabel
{
}

public class Label : ILabel
{
    private static int renders;
    public override string ToString()
    {
        renders++;
        return string.Empty;
    }
}

public static class Labels
{
    public static string Text<T>(T label) where T : ILabel => label.ToString();

    [IsPure]
    public static string Show<T>(T label) where T : Label => Text(label);
}`,
			impure: true,
		},
		{
			name: "ToString through constraint reaches pure override",
			code: `
public interface ILabel
{
}

public class Label : ILabel
{
    public override string ToString() => string.Empty;
}

public static class Labels
{
    public static string Text<T>(T label) where T : ILabel => label.ToString();

    [IsPure]
    public static string Show<T>(T label) where T : Label => Text(label);
}`,
		},
		{
			name: "reading readonly field of compiled parameter",
			code: `
using Acme.CompiledLib;

public static class Geometry
{
    [IsPure]
    public static int X(FrozenPoint p) => p.X;
}`,
			refs: true,
		},
		{
			name: "reading mutable field of compiled parameter",
			code: `
using Acme.CompiledLib;

public static class Geometry
{
    [IsPure]
    public static int X(Point p) => p.X;
}`,
			refs: true,
		},
		{
			name: "writing field of compiled parameter",
			code: `
using Acme.CompiledLib;

public static class Geometry
{
    [IsPure]
    public static string Reset(Point p)
    {
        p.X = 1;
        return "";
    }
}`,
			refs:   true,
			impure: true,
		},
		{
			name: "incrementing field of compiled parameter",
			code: `
using Acme.CompiledLib;

public static class Geometry
{
    [IsPure]
    public static string Shift(Point p)
    {
        p.X = p.X + 1;
        return "";
    }
}`,
			refs:   true,
			impure: true,
		},
		{
			name: "pure operator declaration",
			code: `
public class Money
{
    [IsPure]
    public static Money operator -(Money a, Money b) => new Money();
}`,
		},
		{
			name: "impure operator declaration",
			code: `
public class Money
{
    static int ops = 0;

    [IsPure]
    public static Money operator -(Money a, Money b)
    {
        ops--;
        return new Money();
    }
}`,
			impure: true,
		},
		{
			name: "using pure operator",
			code: `
public class Ledger
{
    [IsPure]
    public static Money Net() => new Money() - new Money();
}

public class Money
{
    public static Money operator -(Money a, Money b) => new Money();
}`,
		},
		{
			name: "using impure operator",
			code: `
public class Ledger
{
    [IsPure]
    public static Money Net() => new Money() - new Money();
}

public class Money
{
    static int ops = 0;
    public static Money operator -(Money a, Money b)
    {
        ops--;
        return new Money();
    }
}`,
			impure: true,
		},
		{
			name: "using pure operator through compound assignment",
			code: `
public class Ledger
{
    [IsPure]
    public static Money Net()
    {
        var total = new Money();
        total -= new Money();
        return total;
    }
}

public class Money
{
    public static Money operator -(Money a, Money b) => new Money();
}`,
		},
		{
			name: "using impure operator through compound assignment",
			code: `
public class Ledger
{
    [IsPure]
    public static Money Net()
    {
        var total = new Money();
        total -= new Money();
        return total;
    }
}

public class Money
{
    static int ops = 0;
    public static Money operator -(Money a, Money b)
    {
        ops--;
        return new Money();
    }
}`,
			impure: true,
		},
		{
			name: "pure indexer getter",
			code: `
public class Lookup
{
    public string this[string key]
    {
        get { return key; }
    }
}

public static class Client
{
    [IsPure]
    public static string Get(Lookup l) => l["key"];
}`,
		},
		{
			name: "pure indexer setter",
			code: `
public class Lookup
{
    public string this[string key]
    {
        set { }
    }
}

public static class Client
{
    [IsPure]
    public static string Set(Lookup l)
    {
        l["key"] = "value";
        return "";
    }
}`,
		},
		{
			name: "impure indexer getter",
			code: `
public class Lookup
{
    static int reads = 0;
    public string this[string key]
    {
        get { reads++; return key; }
    }
}

public static class Client
{
    [IsPure]
    public static string Get(Lookup l) => l["key"];
}`,
			impure: true,
		},
		{
			name: "impure indexer setter",
			code: `
public class Lookup
{
    static int writes = 0;
    public string this[string key]
    {
        set { writes++; }
    }
}

public static class Client
{
    [IsPure]
    public static string Set(Lookup l)
    {
        l["key"] = "value";
        return "";
    }
}`,
			impure: true,
		},
		{
			name: "linq method chain",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static string Summary(int[] data)
    {
        return data
            .Where(x => x > 0)
            .Select(x => x + 1)
            .SelectMany(x => new[] { x, x * 2 })
            .GroupBy(x => x > 2)
            .Select(g => g.Key.ToString())
            .First();
    }
}`,
		},
		{
			name: "linq lambda calls impure method",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static string Summary(int[] data) => data.Select(x => Record(x)).First();

    static int seen = 0;

    public static string Record(int input)
    {
        seen++;
        return "";
    }
}`,
			impure: true,
		},
		{
			name: "linq lambda increments static field",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static int Summary(int[] data) => data.Select(x => seen++).First();

    static int seen = 0;
}`,
			impure: true,
		},
		{
			name: "linq lambda reads mutable static field",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static int Summary(int[] data) => data.Select(x => seen).First();

    static int seen = 0;
}`,
			impure: true,
		},
		{
			name: "linq impure method group",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static string Summary(int[] data) => data.Select(Record).First();

    static int seen = 0;

    public static string Record(int input)
    {
        seen++;
        return "";
    }
}`,
			impure: true,
		},
		{
			name: "linq pure method group",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static string Summary(int[] data) => data.Select(Format).First();

    public static string Format(int input) => "";
}`,
		},
		{
			name: "linq query syntax",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static string Summary(int[] data)
    {
        var result =
            from x in data
            where x > 0
            let y = x + 1
            group y by y > 2 into g
            select g.Key;
        return result.First().ToString();
    }
}`,
		},
		{
			name: "linq query let calls impure method",
			code: `
using System.Linq;

public static class Stats
{
    [IsPure]
    public static bool Summary(int[] data)
    {
        var result =
            from x in data
            where x > 0
            let y = Record(x + 1)
            group y by y > 2 into g
            select g.Key;
        return result.First();
    }

    static int seen = 0;

    public static int Record(int input) => seen++;
}`,
			impure: true,
		},
		{
			name: "method on parameter reads get-only auto property",
			code: `
public class Order
{
    public int Total { get; } = 5;
    public int Read() => Total;
}

public static class Orders
{
    [IsPure]
    public static int Total(Order o) => o.Read();
}`,
		},
		{
			name: "method on parameter reads settable auto property",
			code: `
public class Order
{
    public int Total { get; set; } = 5;
    public int Read() => Total;
}

public static class Orders
{
    [IsPure]
    public static int Total(Order o) => o.Read();
}`,
		},
		{
			name: "method on parameter writes settable auto property",
			code: `
public class Order
{
    public int Total { get; set; } = 5;
    public int Reset()
    {
        Total = 1;
        return 1;
    }
}

public static class Orders
{
    [IsPure]
    public static int Reset(Order o) => o.Reset();
}`,
			impure: true,
		},
		{
			name: "method on parameter reads readonly field",
			code: `
public class Order
{
    public readonly int Total = 5;
    public int Read() => Total;
}

public static class Orders
{
    [IsPure]
    public static int Total(Order o) => o.Read();
}`,
		},
		{
			name: "method on parameter reads mutable field",
			code: `
public class Order
{
    public int Total = 5;
    public int Read() => Total;
}

public static class Orders
{
    [IsPure]
    public static int Total(Order o) => o.Read();
}`,
		},
		{
			name: "method on parameter writes mutable field",
			code: `
public class Order
{
    public int Total = 5;
    public int Reset()
    {
        Total = 1;
        return 1;
    }
}

public static class Orders
{
    [IsPure]
    public static int Reset(Order o) => o.Reset();
}`,
			impure: true,
		},
		{
			name: "method on parameter reads property with impure getter",
			code: `
public class Order
{
    int reads = 0;
    public int Total
    {
        get
        {
            reads++;
            return 1;
        }
    }
    public int Read() => Total;
}

public static class Orders
{
    [IsPure]
    public static string Total(Order o) => o.Read().ToString();
}`,
			impure: true,
		},
		{
			name: "method on parameter reads state through another method",
			code: `
public class Order
{
    int state = 0;
    public int Read() => ReadState();
    public int ReadState() => state;
}

public static class Orders
{
    [IsPure]
    public static string Total(Order o) => o.Read().ToString();
}`,
		},
		{
			name: "method on parameter writes state through another method",
			code: `
public class Order
{
    int state = 0;
    public int Read() => WriteState();
    public int WriteState()
    {
        state = 2;
        return 1;
    }
}

public static class Orders
{
    [IsPure]
    public static string Total(Order o) => o.Read().ToString();
}`,
			impure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, "using System;\n"+tt.code, runOptions{refs: tt.refs})
			found := byID(res, diagnostics.PurityAnalyzer)
			if tt.impure {
				assert.NotEmpty(t, found)
			} else {
				assert.Empty(t, found, "%v", found)
			}
		})
	}
}

func TestImpurityIsReportedAtTheOffendingStatement(t *testing.T) {
	code := `using System;

public static class Counter
{
    static int count;

    [IsPure]
    public static int Next()
    {
        var x = 1;
        count++;
        return x;
    }
}`
	res := analyze(t, code, runOptions{})
	found := byID(res, diagnostics.PurityAnalyzer)
	require.Len(t, found, 1)
	d := found[0]
	assert.Equal(t, diagnostics.SevError, d.Severity)
	assert.Equal(t, "Test.cs", d.Location.File)
	assert.Equal(t, 11, d.Location.Line)
	assert.Equal(t, "Counter.Next", d.Unit)
	assert.Contains(t, d.Message, "count")
}

func TestRelaxedLevels(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		impure bool
	}{
		{
			name: "read locally allows reading own state",
			code: `
public class Account
{
    int balance;

    [IsPureExceptReadLocally]
    public int Balance() => balance;
}`,
		},
		{
			name: "read locally rejects writing own state",
			code: `
public class Account
{
    int balance;

    [IsPureExceptReadLocally]
    public void Deposit(int amount) => balance += amount;
}`,
			impure: true,
		},
		{
			name: "locally allows writing own state",
			code: `
public class Account
{
    int balance;

    [IsPureExceptLocally]
    public void Deposit(int amount) => balance += amount;
}`,
		},
		{
			name: "locally rejects writing static state",
			code: `
public class Account
{
    static int total;

    [IsPureExceptLocally]
    public void Deposit(int amount) => total += amount;
}`,
			impure: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, "using System;\n"+tt.code, runOptions{})
			found := byID(res, diagnostics.PurityAnalyzer)
			if tt.impure {
				assert.NotEmpty(t, found)
			} else {
				assert.Empty(t, found, "%v", found)
			}
		})
	}
}

func TestAttributeMisuse(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		id      diagnostics.ID
		message string
	}{
		{
			name: "relaxed level on static method",
			code: `
public static class Tools
{
    [IsPureExceptLocally]
    public static int One() => 1;
}`,
			id:      diagnostics.PurityAnalyzer,
			message: "IsPureExceptLocallyAttribute cannot be applied on static methods",
		},
		{
			name: "relaxed level on static method of a pure class",
			code: `
[IsPure]
public static class Tools
{
    [IsPureExceptLocally]
    public static int One() => 1;
}`,
			id:      diagnostics.PurityAnalyzer,
			message: "IsPureExceptLocallyAttribute cannot be applied on static methods",
		},
		{
			name: "read locally on static property",
			code: `
public static class Tools
{
    [IsPureExceptReadLocally]
    public static int One => 1;
}`,
			id:      diagnostics.PurityAnalyzer,
			message: "IsPureExceptReadLocallyAttribute cannot be applied on static properties",
		},
		{
			name: "returns new object on value type",
			code: `
public class Tools
{
    [ReturnsNewObject]
    public int One() => 1;
}`,
			id:      diagnostics.ReturnsNewObjectAnalyzer,
			message: "ReturnsNewObjectAttribute cannot be applied on methods that return value types",
		},
		{
			name: "class type parameter that does not exist",
			code: `
public class Box<T>
{
    [DoesNotUseClassTypeParameterAsObject("U")]
    public int Size() => 0;
}`,
			id:      diagnostics.ReturnsNewObjectAnalyzer,
			message: "Box does not declare a type parameter named U",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyze(t, "using System;\n"+tt.code, runOptions{})
			found := byID(res, tt.id)
			require.Len(t, found, 1, "%v", res.Diagnostics)
			assert.Equal(t, diagnostics.SevError, found[0].Severity)
			assert.Equal(t, tt.message, found[0].Message)
		})
	}
}

func TestReturnsNewObject(t *testing.T) {
	code := `using System;
using System.Collections.Generic;

public static class Lists
{
    [ReturnsNewObject]
    public static List<int> Copy(List<int> items) => new List<int>();

    [ReturnsNewObject]
    public static List<int> Same(List<int> items) => items;
}`
	res := analyze(t, code, runOptions{})
	found := byID(res, diagnostics.ReturnsNewObjectAnalyzer)
	require.Len(t, found, 1, "%v", res.Diagnostics)
	assert.Equal(t, "Lists.Same", found[0].Unit)
	assert.Equal(t, "non-new object return", found[0].Message)
}

func TestNotUsedAsObject(t *testing.T) {
	code := `using System;

public static class Printer
{
    public static T Echo<[NotUsedAsObject] T>(T value) => value;

    public static string Show<[NotUsedAsObject] T>(T value) => value.ToString();
}`
	res := analyze(t, code, runOptions{})
	found := byID(res, diagnostics.ReturnsNewObjectAnalyzer)
	require.Len(t, found, 1, "%v", res.Diagnostics)
	assert.Equal(t, "Printer.Show", found[0].Unit)
	assert.Equal(t, "T is used as object", found[0].Message)
}

func TestPureLambdaSites(t *testing.T) {
	code := `using System;

public static class Pipeline
{
    public static int Run(Func<int, int> step) => step(1);
}

public static class Jobs
{
    static int runs;

    public static int Clean() => Pipeline.Run(x => x + 1);

    public static int Dirty() => Pipeline.Run(x => runs++);

    public static int Group() => Pipeline.Run(Twice);

    static int Twice(int x) => x * 2;
}`
	res := analyze(t, code, runOptions{lambdas: []string{"Pipeline.Run:0"}})

	notLambda := byID(res, diagnostics.PureLambdaAnalyzer)
	require.Len(t, notLambda, 1, "%v", res.Diagnostics)
	assert.Equal(t, "Jobs.Group", notLambda[0].Unit)

	impure := byID(res, diagnostics.PurityAnalyzer)
	require.Len(t, impure, 1, "%v", res.Diagnostics)
	assert.Equal(t, "Jobs.Dirty", impure[0].Unit)
}

func TestSuggestion(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"IsPur", "IsPure"},
		{"IsPureAttribute", ""},
		{"Purity.IsPure", ""},
		{"AssumePure", "AssumeIsPure"},
		{"ReturnNewObject", "ReturnsNewObject"},
		{"Obsolete", ""},
		{"Flags", ""},
		{"Serializable", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Suggestion(tt.name), tt.name)
	}
}

func TestMisspelledAttributeWarns(t *testing.T) {
	code := `using System;

public static class Tools
{
    [IsPur]
    public static int One() => 1;
}`
	res := analyze(t, code, runOptions{})
	found := byID(res, diagnostics.PurityAttributeAnalyzer)
	require.Len(t, found, 1)
	assert.Equal(t, diagnostics.SevWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, "did you mean 'IsPure'")
	assert.False(t, res.HasErrors())
}

func TestSyntaxErrorsBecomeWarnings(t *testing.T) {
	code := `using System;

public static class Broken
{
    [IsPure]
    public static int One() => 1
}`
	res := analyze(t, code, runOptions{})
	parse := byID(res, diagnostics.PurityParser)
	require.NotEmpty(t, parse)
	assert.Equal(t, diagnostics.SevWarning, parse[0].Severity)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Analyze(ctx, Input{
		Sources: []csharp.SourceFile{{Path: "Test.cs", Content: []byte(`
public static class Tools
{
    [IsPure]
    public static int One() => 1;
}`)}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlan(t *testing.T) {
	comp, _ := csharp.Load([]csharp.SourceFile{{Path: "Test.cs", Content: []byte(`
[IsPure]
public class Shape
{
    int sides = 3;
    public int Sides => sides;
    public Shape() { }
    public int Double() => sides * 2;
}

public static class Helpers
{
    public static int Unchecked() => 1;
}`)}}, nil)

	a := New(comp, nil, Options{})
	bag := diagnostics.NewBag()
	tasks := a.Plan(bag)
	assert.Zero(t, bag.Len())

	var names []string
	for _, task := range tasks {
		assert.Equal(t, TaskPurity, task.Kind)
		names = append(names, task.Name())
	}
	assert.Contains(t, names, "Shape.sides")
	assert.Contains(t, names, "Shape.Sides")
	assert.Contains(t, names, "Shape.Double")
	assert.NotContains(t, names, "Helpers.Unchecked")
}

func TestParsePureLambdas(t *testing.T) {
	got, err := ParsePureLambdas([]string{"Acme.Pipeline.Run:1", "Acme.Jobs.Each"})
	require.NoError(t, err)
	assert.Equal(t, []purity.PureLambda{
		{Type: "Acme.Pipeline", Method: "Run", Arg: 1},
		{Type: "Acme.Jobs", Method: "Each", Arg: 0},
	}, got)

	_, err = ParsePureLambdas([]string{"Run:x"})
	assert.Error(t, err)
}

func TestLibraryCallsOnParameters(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		impure bool
	}{
		{"list add", "public static void Set(List<int> a) { a.Add(1); }", true},
		{"string builder append", "public static void Write(StringBuilder a) { a.Append(1); }", true},
		{"list reverse", "public static void Flip(List<int> a) { a.Reverse(); }", true},
		{"dictionary clear", "public static void Drop(Dictionary<int, int> a) { a.Clear(); }", true},
		{"list contains", "public static bool Has(List<int> a) => a.Contains(1);", false},
		{"linq on a list", "public static bool Any(List<int> a) => a.Any();", false},
		{"add on a fresh list", "public static int Fill() { var a = new List<int>(); a.Add(1); return a.Count; }", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := `using System;
using System.Collections.Generic;
using System.Linq;
using System.Text;

public static class Calls
{
    [IsPure]
    ` + tt.body + `
}`
			found := byID(analyze(t, code, runOptions{}), diagnostics.PurityAnalyzer)
			if tt.impure {
				require.Len(t, found, 1, "%v", found)
				assert.Equal(t, 9, found[0].Location.Line)
			} else {
				assert.Empty(t, found, "%v", found)
			}
		})
	}
}

func TestSharedStateBehindStaticReadonly(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		impure bool
	}{
		{"relaxed method on a static list", "public static bool Has(int v) => xs.Contains(v);", true},
		{"property of a static list", "public static int Size() => xs.Count;", true},
		{"element of a static array", "public static int First() => numbers[0];", true},
		{"member of a static pure type", "public static int Length() => name.Length;", false},
		{"relaxed method on a parameter", "public static bool Has(List<int> a, int v) => a.Contains(v);", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := `using System;
using System.Collections.Generic;

public static class Lookup
{
    static readonly List<int> xs = new List<int>();
    static readonly int[] numbers = new int[3];
    static readonly string name = "lookup";

    [IsPure]
    ` + tt.body + `
}`
			found := byID(analyze(t, code, runOptions{}), diagnostics.PurityAnalyzer)
			if tt.impure {
				require.Len(t, found, 1, "%v", found)
				assert.Equal(t, 11, found[0].Location.Line)
			} else {
				assert.Empty(t, found, "%v", found)
			}
		})
	}
}

func TestCallCycles(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		units []string
	}{
		{
			name: "mutually recursive pure methods",
			code: `
public static class Parity
{
    [IsPure]
    public static bool Even(int n) => n == 0 || Odd(n - 1);

    [IsPure]
    public static bool Odd(int n) => n != 0 && Even(n - 1);
}`,
		},
		{
			name: "recursion through unannotated helpers",
			code: `
public static class Parity
{
    [IsPure]
    public static bool IsEven(int n) => Even(n);

    static bool Even(int n) => n == 0 || Odd(n - 1);
    static bool Odd(int n) => n != 0 && Even(n - 1);
}`,
		},
		{
			name: "impure method inside a cycle",
			code: `
public static class Parity
{
    static int calls;

    [IsPure]
    public static bool Even(int n) => n == 0 || Odd(n - 1);

    public static bool Odd(int n)
    {
        calls++;
        return n != 0 && Even(n - 1);
    }
}`,
			units: []string{"Parity.Even"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := byID(analyze(t, "using System;\n"+tt.code, runOptions{}), diagnostics.PurityAnalyzer)
			units := make([]string, 0, len(found))
			for _, d := range found {
				units = append(units, d.Unit)
			}
			assert.ElementsMatch(t, tt.units, units, "%v", found)
		})
	}
}

func TestFieldReadReportedAtTheRead(t *testing.T) {
	code := `using System;

public class Holder
{
    int state;
    [IsPure] public string Show() { return state.ToString(); }
}`
	found := byID(analyze(t, code, runOptions{}), diagnostics.PurityAnalyzer)
	require.Len(t, found, 1, "%v", found)
	assert.Equal(t, 6, found[0].Location.Line)
	assert.Equal(t, 44, found[0].Location.Column)
	assert.Equal(t, "Holder.Show", found[0].Unit)
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	code := `using System;
using System.Collections.Generic;

public class Ledger
{
    static int total;
    int balance;

    [IsPure]
    public int Sum(List<int> items)
    {
        items.Add(balance);
        total++;
        return balance + total;
    }

    [IsPure]
    public void Reset() => balance = 0;
}`
	first := analyze(t, code, runOptions{})
	require.NotEmpty(t, byID(first, diagnostics.PurityAnalyzer))
	for i := 1; i < len(first.Diagnostics); i++ {
		prev, cur := first.Diagnostics[i-1].Location, first.Diagnostics[i].Location
		assert.LessOrEqual(t, prev.Line*1000+prev.Column, cur.Line*1000+cur.Column, "diagnostics are in source order")
	}
	for range 2 {
		assert.Equal(t, first.Diagnostics, analyze(t, code, runOptions{}).Diagnostics)
	}
}
