package knownsymbols

// Built-in framework knowledge
//
// Only list members that are DEFINITELY pure (or pure except locally) for
// every input. Anything left out is treated as impure, so omissions make the
// analysis more conservative, never less safe.

// defaultPureTypes are types every member of which is pure.
var defaultPureTypes = []string{
	"System.Object",
	"System.String",
	"System.Boolean",
	"System.Byte",
	"System.SByte",
	"System.Char",
	"System.Decimal",
	"System.Double",
	"System.Single",
	"System.Int16",
	"System.Int32",
	"System.Int64",
	"System.UInt16",
	"System.UInt32",
	"System.UInt64",
	"System.IntPtr",
	"System.UIntPtr",
	"System.TimeSpan",
	"System.Math",
	"System.MathF",
	"System.Convert",
	"System.BitConverter",
	"System.Nullable",
	"System.Tuple",
	"System.ValueTuple",
	"System.Collections.Generic.KeyValuePair",
	"System.Collections.Immutable.ImmutableArray",
	"System.Collections.Immutable.ImmutableList",
	"System.Collections.Immutable.ImmutableDictionary",
	"System.Collections.Immutable.ImmutableHashSet",

	// Framework enums read as constants
	"System.StringComparison",
	"System.StringSplitOptions",
	"System.DateTimeKind",
	"System.MidpointRounding",
	"System.Globalization.NumberStyles",

	// LINQ operators are transparent: lambdas passed to them are analyzed
	// where they are written.
	"System.Linq.Enumerable",
}

// defaultPureMethods covers types with some impure members, such as the
// clock-reading properties of DateTime.
var defaultPureMethods = []string{
	"System.Globalization.CultureInfo.InvariantCulture",

	// System.DateTime (Now and UtcNow are not pure)
	"System.DateTime.AddDays",
	"System.DateTime.AddHours",
	"System.DateTime.AddMinutes",
	"System.DateTime.AddSeconds",
	"System.DateTime.AddMilliseconds",
	"System.DateTime.AddMonths",
	"System.DateTime.AddYears",
	"System.DateTime.AddTicks",
	"System.DateTime.Add",
	"System.DateTime.Subtract",
	"System.DateTime.CompareTo",
	"System.DateTime.Equals",
	"System.DateTime.GetHashCode",
	"System.DateTime.ToString",
	"System.DateTime.Parse",
	"System.DateTime.TryParse",
	"System.DateTime.DaysInMonth",
	"System.DateTime.IsLeapYear",

	// System.Guid (NewGuid is not pure)
	"System.Guid.Parse",
	"System.Guid.TryParse",
	"System.Guid.Equals",
	"System.Guid.GetHashCode",
	"System.Guid.ToString",
	"System.Guid.CompareTo",

	// System.Enum
	"System.Enum.HasFlag",
	"System.Enum.ToString",
	"System.Enum.Equals",
	"System.Enum.GetHashCode",
	"System.Enum.Parse",
	"System.Enum.TryParse",
	"System.Enum.IsDefined",

	// Equality helpers
	"System.Collections.Generic.EqualityComparer.Equals",
	"System.Collections.Generic.EqualityComparer.GetHashCode",
	"System.Collections.Generic.Comparer.Compare",
	"System.StringComparer.Equals",
	"System.StringComparer.Compare",
	"System.StringComparer.GetHashCode",

	// System.Array
	"System.Array.Empty",
	"System.Array.IndexOf",
	"System.Array.BinarySearch",

	// Constructors are keyed <Type>.<TypeName>. Collection construction
	// reads only its arguments.
	"System.Collections.Generic.List.List",
	"System.Collections.Generic.Dictionary.Dictionary",
	"System.Collections.Generic.HashSet.HashSet",
	"System.Collections.Generic.Queue.Queue",
	"System.Collections.Generic.Stack.Stack",
	"System.Text.StringBuilder.StringBuilder",

	// Constructors of exceptions thrown from pure code
	"System.Exception.Exception",
	"System.ArgumentException.ArgumentException",
	"System.ArgumentNullException.ArgumentNullException",
	"System.ArgumentOutOfRangeException.ArgumentOutOfRangeException",
	"System.InvalidOperationException.InvalidOperationException",
	"System.NotSupportedException.NotSupportedException",
	"System.NotImplementedException.NotImplementedException",
	"System.FormatException.FormatException",
}

// defaultPureExceptReadLocallyMethods read the receiver's mutable state.
// They are pure on objects the caller does not own.
var defaultPureExceptReadLocallyMethods = []string{
	"System.Collections.Generic.List.Contains",
	"System.Collections.Generic.List.IndexOf",
	"System.Collections.Generic.List.LastIndexOf",
	"System.Collections.Generic.List.Find",
	"System.Collections.Generic.List.FindIndex",
	"System.Collections.Generic.List.FindAll",
	"System.Collections.Generic.List.Exists",
	"System.Collections.Generic.List.TrueForAll",
	"System.Collections.Generic.List.ToArray",
	"System.Collections.Generic.List.GetRange",
	"System.Collections.Generic.List.BinarySearch",
	"System.Collections.Generic.List.GetEnumerator",
	"System.Collections.Generic.List.CopyTo",
	"System.Collections.Generic.Dictionary.ContainsKey",
	"System.Collections.Generic.Dictionary.ContainsValue",
	"System.Collections.Generic.Dictionary.TryGetValue",
	"System.Collections.Generic.Dictionary.GetEnumerator",
	"System.Collections.Generic.HashSet.Contains",
	"System.Collections.Generic.HashSet.IsSubsetOf",
	"System.Collections.Generic.HashSet.IsSupersetOf",
	"System.Collections.Generic.HashSet.Overlaps",
	"System.Collections.Generic.HashSet.SetEquals",
	"System.Collections.Generic.HashSet.GetEnumerator",
	"System.Collections.Generic.Queue.Peek",
	"System.Collections.Generic.Queue.Contains",
	"System.Collections.Generic.Stack.Peek",
	"System.Collections.Generic.Stack.Contains",
	"System.Text.StringBuilder.ToString",
	"System.Array.Clone",
}

// defaultPureExceptLocallyMethods mutate only the receiver. They are pure
// on objects allocated by the code under analysis.
var defaultPureExceptLocallyMethods = []string{
	"System.Collections.Generic.List.Add",
	"System.Collections.Generic.List.AddRange",
	"System.Collections.Generic.List.Insert",
	"System.Collections.Generic.List.InsertRange",
	"System.Collections.Generic.List.Remove",
	"System.Collections.Generic.List.RemoveAt",
	"System.Collections.Generic.List.RemoveAll",
	"System.Collections.Generic.List.RemoveRange",
	"System.Collections.Generic.List.Clear",
	"System.Collections.Generic.List.Sort",
	"System.Collections.Generic.List.Reverse",
	"System.Collections.Generic.Dictionary.Add",
	"System.Collections.Generic.Dictionary.TryAdd",
	"System.Collections.Generic.Dictionary.Remove",
	"System.Collections.Generic.Dictionary.Clear",
	"System.Collections.Generic.HashSet.Add",
	"System.Collections.Generic.HashSet.Remove",
	"System.Collections.Generic.HashSet.UnionWith",
	"System.Collections.Generic.HashSet.IntersectWith",
	"System.Collections.Generic.HashSet.ExceptWith",
	"System.Collections.Generic.HashSet.Clear",
	"System.Collections.Generic.Queue.Enqueue",
	"System.Collections.Generic.Queue.Dequeue",
	"System.Collections.Generic.Stack.Push",
	"System.Collections.Generic.Stack.Pop",
	"System.Text.StringBuilder.Append",
	"System.Text.StringBuilder.AppendLine",
	"System.Text.StringBuilder.AppendFormat",
	"System.Text.StringBuilder.Insert",
	"System.Text.StringBuilder.Remove",
	"System.Text.StringBuilder.Replace",
	"System.Text.StringBuilder.Clear",
}

// defaultReturnsNewObjectMethods always allocate their result
var defaultReturnsNewObjectMethods = []string{
	"System.Linq.Enumerable.ToList",
	"System.Linq.Enumerable.ToArray",
	"System.Linq.Enumerable.ToDictionary",
	"System.Linq.Enumerable.ToHashSet",
	"System.Linq.Enumerable.ToLookup",
	"System.Collections.Generic.List.ToArray",
	"System.Collections.Generic.List.GetRange",
	"System.Collections.Generic.List.FindAll",
	"System.Text.StringBuilder.ToString",
	"System.Array.Clone",
	"System.Object.MemberwiseClone",
}

// linqOperators are listed by name so extension calls on compiled
// receivers can be resolved against the namespaces in scope.
var linqOperators = []string{
	"Aggregate", "All", "Any", "Append", "Average", "Cast", "Concat", "Contains",
	"Count", "DefaultIfEmpty", "Distinct", "DistinctBy", "ElementAt", "ElementAtOrDefault",
	"Empty", "Except", "First", "FirstOrDefault", "GroupBy", "GroupJoin", "Intersect",
	"Join", "Last", "LastOrDefault", "LongCount", "Max", "MaxBy", "Min", "MinBy",
	"OfType", "OrderBy", "OrderByDescending", "Prepend", "Range", "Repeat", "Reverse",
	"Select", "SelectMany", "SequenceEqual", "Single", "SingleOrDefault", "Skip",
	"SkipLast", "SkipWhile", "Sum", "Take", "TakeLast", "TakeWhile", "ThenBy",
	"ThenByDescending", "ToArray", "ToDictionary", "ToHashSet", "ToList", "ToLookup",
	"Union", "Where", "Zip", "Chunk", "AsEnumerable",
}

var defaultExtensionHosts = []string{
	"System.Linq.Enumerable",
}

// DefaultExtensionHosts returns the framework classes whose defaults are
// extension methods
func DefaultExtensionHosts() []string {
	return append([]string(nil), defaultExtensionHosts...)
}

// Defaults returns a copy of the built-in entries per category
func Defaults() map[Category][]string {
	pure := append([]string(nil), defaultPureMethods...)
	for _, op := range linqOperators {
		pure = append(pure, "System.Linq.Enumerable."+op)
	}
	return map[Category][]string{
		PureTypes:                    append([]string(nil), defaultPureTypes...),
		PureMethods:                  pure,
		PureExceptReadLocallyMethods: append([]string(nil), defaultPureExceptReadLocallyMethods...),
		PureExceptLocallyMethods:     append([]string(nil), defaultPureExceptLocallyMethods...),
		ReturnsNewObjectMethods:      append([]string(nil), defaultReturnsNewObjectMethods...),
	}
}
