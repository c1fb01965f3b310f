// Package script hosts JavaScript operators on the goja engine.
//
// A handler module is loaded with CommonJS require semantics: the directory
// of the module is a global module folder and the module is required by its
// file stem. The module must export a constructible `Operator`; one instance
// is created per session and its `on_event(event, send_output)` method is
// called for every event. The method returns one of the DoraStatus values.
//
//	const { DoraStatus } = require("dora");
//
//	class Operator {
//	  on_event(event, send_output) {
//	    if (event.type === "INPUT") {
//	      send_output("echo", event.value, event.metadata);
//	    }
//	    return DoraStatus.CONTINUE;
//	  }
//	}
//
//	module.exports = { Operator };
//
// Buffers handed to on_event are detached when the call returns; handlers
// must copy data they want to keep.
package script
