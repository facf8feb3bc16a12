// rollplan plans corrugator roll runs for box production orders.
//
// Build:
//
//	go build -o rollplan ./cmd/rollplan
//
// Typical session:
//
//	rollplan catalog init
//	rollplan import pedidos.csv
//	rollplan plan --report plan.pdf --xlsx plan.xlsx
//	rollplan workorders --labels labels.pdf
package main

func main() {
	Execute()
}
