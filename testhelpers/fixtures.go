package testhelpers

// ImpureCounter has one IsPure method that increments a static field. The
// write is reported at line 10, column 9.
const ImpureCounter = `using System;

public static class Counter
{
    static int count;

    [IsPure]
    public static int Next()
    {
        count++;
        return 0;
    }
}
`

// PureGeometry has one IsPure method and no findings
const PureGeometry = `using System;

public static class Geometry
{
    [IsPure]
    public static int Area(int w, int h) => w * h;
}
`
