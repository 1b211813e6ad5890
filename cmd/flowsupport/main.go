// Command flowsupport is the FlowSupport AI customer-support assistant:
// it turns PDF manuals into a searchable index and answers questions from it.
package main

import "github.com/0xcro3dile/flowsupport/internal/logger"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}
