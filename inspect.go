package surveydashboard

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
)

// Inspect loads one produced CSV into a dataframe and prints its shape,
// column names and summary statistics.
func Inspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		return fmt.Errorf("read %s: %w", path, df.Err)
	}
	rows, cols := df.Dims()
	fmt.Printf("%s: %d rows x %d columns\n", path, rows, cols)
	fmt.Printf("columns: %v\n", df.Names())
	fmt.Println(df.Describe())
	return nil
}
