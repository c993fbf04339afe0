package textplugins

this file is not valid Go and must never be inspected
